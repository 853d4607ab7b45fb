package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var _ EconomicsRepository = (*EconomicsRepo)(nil)

// EconomicsRepo persists economic calendar events.
type EconomicsRepo struct {
	db *DB
}

func NewEconomicsRepo(db *DB) *EconomicsRepo {
	return &EconomicsRepo{db: db}
}

// UpsertEvents merges a day-keyed batch into economics_calendar. Conflicts
// on (day, event) overwrite the instant and all-day flag, which a fresh
// parse always carries, and COALESCE the nullable fields so an incoming
// null never clobbers a stored value. Events without a title cannot be
// keyed and are skipped. Rows are written one by one so a failing row
// does not block the rest of the batch; the collected errors are joined.
func (r *EconomicsRepo) UpsertEvents(ctx context.Context, byDay map[time.Time][]EconomicEvent) error {
	var errs []error

	for day, events := range byDay {
		for _, event := range events {
			if event.Event == "" {
				continue
			}

			_, err := r.db.ExecContext(ctx, `
				INSERT INTO economics_calendar
					(day, instant, is_all_day, currency, impact, event, actual, forecast, previous)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (day, event) DO UPDATE SET
					instant = EXCLUDED.instant,
					is_all_day = EXCLUDED.is_all_day,
					currency = COALESCE(EXCLUDED.currency, economics_calendar.currency),
					impact = COALESCE(EXCLUDED.impact, economics_calendar.impact),
					actual = COALESCE(EXCLUDED.actual, economics_calendar.actual),
					forecast = COALESCE(EXCLUDED.forecast, economics_calendar.forecast),
					previous = COALESCE(EXCLUDED.previous, economics_calendar.previous),
					updated_at = NOW()
			`, day.Format("2006-01-02"), event.Instant, event.IsAllDay,
				event.Currency, event.Impact, event.Event,
				event.Actual, event.Forecast, event.Previous)

			if err != nil {
				errs = append(errs, fmt.Errorf("failed to upsert event %q on %s: %w",
					event.Event, day.Format("2006-01-02"), err))
			}
		}
	}

	return errors.Join(errs...)
}

// GetEventsByRange returns events whose day falls inside the inclusive
// [start, end] range (either bound may be nil), ordered by day ascending
// then insertion id.
func (r *EconomicsRepo) GetEventsByRange(ctx context.Context, start, end *time.Time) ([]EconomicEvent, error) {
	query := `
		SELECT id, day, instant, is_all_day, currency, impact, event, actual, forecast, previous
		FROM economics_calendar`

	where, args := dayRangeClause(start, end)
	query += where + " ORDER BY day, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get economic events: %w", err)
	}
	defer rows.Close()

	var events []EconomicEvent
	for rows.Next() {
		var event EconomicEvent
		var currency, impact, actual, forecast, previous sql.NullString

		err := rows.Scan(&event.ID, &event.Day, &event.Instant, &event.IsAllDay,
			&currency, &impact, &event.Event, &actual, &forecast, &previous)
		if err != nil {
			return nil, fmt.Errorf("failed to scan economic event row: %w", err)
		}

		event.Day = event.Day.UTC()
		event.Instant = event.Instant.UTC()
		event.Currency = nullableString(currency)
		event.Impact = nullableString(impact)
		event.Actual = nullableString(actual)
		event.Forecast = nullableString(forecast)
		event.Previous = nullableString(previous)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating economic event rows: %w", err)
	}

	return events, nil
}

// GetEventCount returns the total number of stored economic events.
func (r *EconomicsRepo) GetEventCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM economics_calendar").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get economic event count: %w", err)
	}
	return count, nil
}

// GetDaySpan returns the earliest and latest stored day, or nils when the
// table is empty.
func (r *EconomicsRepo) GetDaySpan(ctx context.Context) (*time.Time, *time.Time, error) {
	var first, last sql.NullTime
	err := r.db.QueryRowContext(ctx, "SELECT MIN(day), MAX(day) FROM economics_calendar").Scan(&first, &last)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get economic calendar day span: %w", err)
	}
	return nullableTime(first), nullableTime(last), nil
}

// dayRangeClause builds the optional inclusive day filter shared by the
// calendar range reads.
func dayRangeClause(start, end *time.Time) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if start != nil {
		args = append(args, start.Format("2006-01-02"))
		clauses = append(clauses, fmt.Sprintf("day >= $%d", len(args)))
	}
	if end != nil {
		args = append(args, end.Format("2006-01-02"))
		clauses = append(clauses, fmt.Sprintf("day <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullableFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
