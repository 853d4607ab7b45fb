package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kitsunelab/marketcal/app/calendar"
	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/sources"
)

// SyncEconomicsTask fetches the weekly economic calendar page, parses it
// into resolved events and upserts them. A fetch or extraction failure
// aborts the cycle with a warning and no write; stored data is untouched
// and the next scheduled trigger retries against idempotent upserts.
type SyncEconomicsTask struct {
	Task
	source        sources.EconomicsSource
	httpClient    *http.Client
	extractor     *calendar.Extractor
	parser        *calendar.Parser
	economicsRepo database.EconomicsRepository
	userAgent     string
}

func NewSyncEconomicsTask(source sources.EconomicsSource, httpClient *http.Client,
	extractor *calendar.Extractor, parser *calendar.Parser,
	economicsRepo database.EconomicsRepository, userAgent string) *SyncEconomicsTask {
	return &SyncEconomicsTask{
		Task:          NewTask(TaskTypeSyncEconomics),
		source:        source,
		httpClient:    httpClient,
		extractor:     extractor,
		parser:        parser,
		economicsRepo: economicsRepo,
		userAgent:     userAgent,
	}
}

func (t *SyncEconomicsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	pageHTML, err := t.fetchPage(ctx, t.source.URL)
	if err != nil {
		slog.Warn("Failed to fetch economics calendar, skipping cycle", "error", err)
		return nil
	}

	tableHTML, err := t.extractor.Run(pageHTML)
	if err != nil {
		slog.Warn("Failed to extract economics calendar table, skipping cycle", "error", err)
		return nil
	}

	events, err := t.parser.Run(tableHTML)
	if err != nil {
		return fmt.Errorf("failed to parse economics calendar: %w", err)
	}

	if len(events) == 0 {
		slog.Warn("No economic events found in calendar data")
		return nil
	}

	byDay := calendar.GroupByDay(events)

	records := make(map[time.Time][]database.EconomicEvent, len(byDay))
	for day, dayEvents := range byDay {
		rows := make([]database.EconomicEvent, 0, len(dayEvents))
		for _, event := range dayEvents {
			rows = append(rows, economicRecord(event))
		}
		records[day] = rows
	}

	if err := t.economicsRepo.UpsertEvents(ctx, records); err != nil {
		return fmt.Errorf("failed to store economic events: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncEconomics",
		"events", len(events),
		"days", len(byDay),
		"duration", t.GetDuration())

	return nil
}

func (t *SyncEconomicsTask) fetchPage(ctx context.Context, url string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.source.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch calendar page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}

// economicRecord converts a parsed event to its storage row. Blank
// strings and the unknown impact become NULLs so the upsert merge never
// clobbers stored values with absence.
func economicRecord(event calendar.EconomicEvent) database.EconomicEvent {
	return database.EconomicEvent{
		Instant:  event.Instant,
		IsAllDay: event.AllDay,
		Currency: optional(event.Currency),
		Impact:   optional(string(event.Impact)),
		Event:    event.Title,
		Actual:   optional(event.Actual),
		Forecast: optional(event.Forecast),
		Previous: optional(event.Previous),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
