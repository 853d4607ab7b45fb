package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/earnings"
)

// SyncEarningsTask pages through the earnings feed and upserts the
// grouped result. Like the economics sync, a fetch failure skips the
// cycle with a warning and leaves stored data untouched.
type SyncEarningsTask struct {
	Task
	client       *earnings.Client
	earningsRepo database.EarningsRepository
}

func NewSyncEarningsTask(client *earnings.Client, earningsRepo database.EarningsRepository) *SyncEarningsTask {
	return &SyncEarningsTask{
		Task:         NewTask(TaskTypeSyncEarnings),
		client:       client,
		earningsRepo: earningsRepo,
	}
}

func (t *SyncEarningsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records, err := t.client.FetchAll(ctx)
	if err != nil {
		slog.Warn("Failed to fetch earnings calendar, skipping cycle", "error", err)
		return nil
	}

	if len(records) == 0 {
		slog.Warn("No earnings calendar data returned")
		return nil
	}

	byDay := earnings.GroupByDay(records)

	items := make(map[time.Time]map[string][]database.EarningsItem, len(byDay))
	for day, companies := range byDay {
		itemsByCompany := make(map[string][]database.EarningsItem, len(companies))
		for company, companyRecords := range companies {
			rows := make([]database.EarningsItem, 0, len(companyRecords))
			for _, record := range companyRecords {
				rows = append(rows, earningsRecord(record))
			}
			itemsByCompany[company] = rows
		}
		items[day] = itemsByCompany
	}

	if err := t.earningsRepo.UpsertItems(ctx, items); err != nil {
		return fmt.Errorf("failed to store earnings items: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncEarnings",
		"items", len(records),
		"days", len(byDay),
		"duration", t.GetDuration())

	return nil
}

func earningsRecord(record earnings.Record) database.EarningsItem {
	return database.EarningsItem{
		Company:     record.Company,
		Symbol:      record.Symbol,
		MarketCap:   record.MarketCap,
		EventName:   optional(record.EventName),
		Date:        record.Date,
		Timing:      optional(record.Timing),
		EPSEstimate: record.EPSEstimate,
		ReportedEPS: record.ReportedEPS,
		SurprisePct: record.SurprisePct,
	}
}
