package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kitsunelab/marketcal/app/calendar"
	"github.com/kitsunelab/marketcal/app/cfg"
	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/earnings"
	"github.com/kitsunelab/marketcal/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs the calendar syncs on their configured cadence through a
// small worker pool. Each task type is single-flight: a trigger that
// arrives while the same sync is queued or running is coalesced, never
// run concurrently against the same rows.
type Scheduler struct {
	sources        *sources.Config
	httpClient     *http.Client
	extractor      *calendar.Extractor
	parser         *calendar.Parser
	earningsClient *earnings.Client
	economicsRepo  database.EconomicsRepository
	earningsRepo   database.EarningsRepository
	userAgent      string
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface

	mu       sync.Mutex
	inFlight map[TaskType]bool
	nextRun  map[TaskType]time.Time
}

const (
	syncQueued    = "queued"
	syncCoalesced = "coalesced"
	syncDisabled  = "disabled"
	syncFailed    = "failed"
)

func NewScheduler(srcs *sources.Config, httpClient *http.Client, extractor *calendar.Extractor,
	parser *calendar.Parser, earningsClient *earnings.Client,
	economicsRepo database.EconomicsRepository, earningsRepo database.EarningsRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		sources:        srcs,
		httpClient:     httpClient,
		extractor:      extractor,
		parser:         parser,
		earningsClient: earningsClient,
		economicsRepo:  economicsRepo,
		earningsRepo:   earningsRepo,
		userAgent:      cfg.UserAgent,
		interval:       time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 10),
		inFlight:       make(map[TaskType]bool),
		nextRun:        make(map[TaskType]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

// EnqueueTask queues a task unless the same task type is already queued
// or running, in which case the trigger is coalesced and dropped.
func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	_, err := s.enqueue(task)
	return err
}

// TriggerSync enqueues both calendar syncs immediately, reporting what
// happened per source. The scheduled cadence is left untouched.
func (s *Scheduler) TriggerSync() map[string]string {
	statuses := make(map[string]string, 2)

	if s.sources.Economics.Enabled {
		statuses["economics"] = s.dispatch(s.newEconomicsTask())
	} else {
		statuses["economics"] = syncDisabled
	}

	if s.sources.Earnings.Enabled {
		statuses["earnings"] = s.dispatch(s.newEarningsTask())
	} else {
		statuses["earnings"] = syncDisabled
	}

	return statuses
}

func (s *Scheduler) QueueSize() int {
	return len(s.taskQueue)
}

func (s *Scheduler) newEconomicsTask() *SyncEconomicsTask {
	return NewSyncEconomicsTask(s.sources.Economics, s.httpClient, s.extractor, s.parser, s.economicsRepo, s.userAgent)
}

func (s *Scheduler) newEarningsTask() *SyncEarningsTask {
	return NewSyncEarningsTask(s.earningsClient, s.earningsRepo)
}

// enqueueDueTasks queues each enabled sync whose refresh interval has
// elapsed. A coalesced enqueue still advances the due time: the run in
// flight satisfies this trigger.
func (s *Scheduler) enqueueDueTasks() {
	now := time.Now().UTC()

	if s.sources.Economics.Enabled && s.isDue(TaskTypeSyncEconomics, now) {
		if status := s.dispatch(s.newEconomicsTask()); status != syncFailed {
			s.advanceNextRun(TaskTypeSyncEconomics, now, s.sources.Economics.RefreshInterval)
		}
	}

	if s.sources.Earnings.Enabled && s.isDue(TaskTypeSyncEarnings, now) {
		if status := s.dispatch(s.newEarningsTask()); status != syncFailed {
			s.advanceNextRun(TaskTypeSyncEarnings, now, s.sources.Earnings.RefreshInterval)
		}
	}
}

func (s *Scheduler) isDue(taskType TaskType, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.nextRun[taskType]
	return !ok || !next.After(now)
}

func (s *Scheduler) advanceNextRun(taskType TaskType, now time.Time, refreshSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRun[taskType] = now.Add(time.Duration(refreshSeconds) * time.Second)
}

func (s *Scheduler) dispatch(task TaskInterface) string {
	status, err := s.enqueue(task)
	if err != nil {
		slog.Warn("Failed to enqueue sync task", "type", string(task.GetType()), "error", err)
		return syncFailed
	}
	return status
}

func (s *Scheduler) enqueue(task TaskInterface) (string, error) {
	taskType := task.GetType()

	s.mu.Lock()
	if s.inFlight[taskType] {
		s.mu.Unlock()
		slog.Debug("Sync already in flight, coalescing trigger", "type", string(taskType))
		return syncCoalesced, nil
	}
	s.inFlight[taskType] = true
	s.mu.Unlock()

	select {
	case s.taskQueue <- task:
		return syncQueued, nil
	case <-s.ctx.Done():
		s.setIdle(taskType)
		return syncFailed, s.ctx.Err()
	default:
		s.setIdle(taskType)
		return syncFailed, fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) setIdle(taskType TaskType) {
	s.mu.Lock()
	delete(s.inFlight, taskType)
	s.mu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	defer s.setIdle(task.GetType())

	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}
}
