package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ EarningsRepository = (*EarningsRepo)(nil)

// EarningsRepo persists earnings calendar items.
type EarningsRepo struct {
	db *DB
}

func NewEarningsRepo(db *DB) *EarningsRepo {
	return &EarningsRepo{db: db}
}

// UpsertItems merges a day-keyed, company-keyed batch into
// earnings_calendar. Conflicts on (symbol, date) overwrite day and
// company, which every fetch carries, and COALESCE the numeric and label
// fields: estimates appear before an event and actuals after, and neither
// may erase the other. Rows are written one by one so a failing
// row does not block rows with a different key.
func (r *EarningsRepo) UpsertItems(ctx context.Context, byDay map[time.Time]map[string][]EarningsItem) error {
	var errs []error

	for day, companies := range byDay {
		for company, items := range companies {
			for _, item := range items {
				_, err := r.db.ExecContext(ctx, `
					INSERT INTO earnings_calendar
						(day, company, symbol, marketcap, event_name, date, timing,
						 eps_estimate, reported_eps, surprise_pct)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
					ON CONFLICT (symbol, date) DO UPDATE SET
						day = EXCLUDED.day,
						company = EXCLUDED.company,
						marketcap = COALESCE(EXCLUDED.marketcap, earnings_calendar.marketcap),
						event_name = COALESCE(EXCLUDED.event_name, earnings_calendar.event_name),
						timing = COALESCE(EXCLUDED.timing, earnings_calendar.timing),
						eps_estimate = COALESCE(EXCLUDED.eps_estimate, earnings_calendar.eps_estimate),
						reported_eps = COALESCE(EXCLUDED.reported_eps, earnings_calendar.reported_eps),
						surprise_pct = COALESCE(EXCLUDED.surprise_pct, earnings_calendar.surprise_pct),
						updated_at = NOW()
				`, day.Format("2006-01-02"), company, item.Symbol,
					item.MarketCap, item.EventName, item.Date, item.Timing,
					item.EPSEstimate, item.ReportedEPS, item.SurprisePct)

				if err != nil {
					errs = append(errs, fmt.Errorf("failed to upsert earnings item %s on %s: %w",
						item.Symbol, day.Format("2006-01-02"), err))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// GetItemsByRange returns items whose day falls inside the inclusive
// [start, end] range (either bound may be nil), ordered by day descending
// then insertion id, matching the calendar display order.
func (r *EarningsRepo) GetItemsByRange(ctx context.Context, start, end *time.Time) ([]EarningsItem, error) {
	query := `
		SELECT id, day, company, symbol, marketcap, event_name, date, timing,
		       eps_estimate, reported_eps, surprise_pct
		FROM earnings_calendar`

	where, args := dayRangeClause(start, end)
	query += where + " ORDER BY day DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get earnings items: %w", err)
	}
	defer rows.Close()

	var items []EarningsItem
	for rows.Next() {
		var item EarningsItem
		var eventName, timing sql.NullString
		var marketCap, epsEstimate, reportedEPS, surprisePct sql.NullFloat64

		err := rows.Scan(&item.ID, &item.Day, &item.Company, &item.Symbol,
			&marketCap, &eventName, &item.Date, &timing,
			&epsEstimate, &reportedEPS, &surprisePct)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earnings item row: %w", err)
		}

		item.Day = item.Day.UTC()
		item.Date = item.Date.UTC()
		item.MarketCap = nullableFloat(marketCap)
		item.EventName = nullableString(eventName)
		item.Timing = nullableString(timing)
		item.EPSEstimate = nullableFloat(epsEstimate)
		item.ReportedEPS = nullableFloat(reportedEPS)
		item.SurprisePct = nullableFloat(surprisePct)

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating earnings item rows: %w", err)
	}

	return items, nil
}

// GetItemCount returns the total number of stored earnings items.
func (r *EarningsRepo) GetItemCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM earnings_calendar").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get earnings item count: %w", err)
	}
	return count, nil
}

// GetDaySpan returns the earliest and latest stored day, or nils when the
// table is empty.
func (r *EarningsRepo) GetDaySpan(ctx context.Context) (*time.Time, *time.Time, error) {
	var first, last sql.NullTime
	err := r.db.QueryRowContext(ctx, "SELECT MIN(day), MAX(day) FROM earnings_calendar").Scan(&first, &last)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get earnings calendar day span: %w", err)
	}
	return nullableTime(first), nullableTime(last), nil
}
