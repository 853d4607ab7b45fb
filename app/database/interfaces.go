package database

import (
	"context"
	"time"
)

// EconomicsRepository is the storage contract for the economic calendar.
// Writes are idempotent per-row upserts keyed by (day, event); reads are
// inclusive day-range scans ordered by day ascending, then insertion id.
type EconomicsRepository interface {
	UpsertEvents(ctx context.Context, byDay map[time.Time][]EconomicEvent) error
	GetEventsByRange(ctx context.Context, start, end *time.Time) ([]EconomicEvent, error)
	GetEventCount(ctx context.Context) (int, error)
	GetDaySpan(ctx context.Context) (*time.Time, *time.Time, error)
}

// EarningsRepository is the storage contract for the earnings calendar.
// Writes upsert by (symbol, date); reads are inclusive day-range scans
// ordered by day descending, then insertion id (display order).
type EarningsRepository interface {
	UpsertItems(ctx context.Context, byDay map[time.Time]map[string][]EarningsItem) error
	GetItemsByRange(ctx context.Context, start, end *time.Time) ([]EarningsItem, error)
	GetItemCount(ctx context.Context) (int, error)
	GetDaySpan(ctx context.Context) (*time.Time, *time.Time, error)
}

type WatchlistRepository interface {
	GetTickers(ctx context.Context) ([]string, error)
	AddTicker(ctx context.Context, ticker string) error
	RemoveTicker(ctx context.Context, ticker string) error
}
