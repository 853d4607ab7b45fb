package tasks

// TaskSchedulerInterface is the surface the API consumes: the manual sync
// trigger enqueues through it and the stats endpoint reads queue depth.
// Example usage:
//
//	scheduler := NewScheduler(srcs, httpClient, extractor, parser, client, economicsRepo, earningsRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	statuses := scheduler.TriggerSync()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerSync() map[string]string
	QueueSize() int
}
