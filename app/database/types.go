package database

import (
	"time"
)

// EconomicEvent is one row of economics_calendar. Nullable columns are
// pointers; nil means the source never reported a value. Day is the UTC
// calendar day the event is keyed under, Instant the full UTC timestamp
// (midnight for all-day events).
type EconomicEvent struct {
	ID       int64
	Day      time.Time
	Instant  time.Time
	IsAllDay bool
	Currency *string
	Impact   *string
	Event    string
	Actual   *string
	Forecast *string
	Previous *string
}

// EarningsItem is one row of earnings_calendar, keyed by (symbol, date).
// Day is the UTC calendar day derived from Date; Company falls back to
// the symbol upstream, so both are always present.
type EarningsItem struct {
	ID          int64
	Day         time.Time
	Company     string
	Symbol      string
	MarketCap   *float64
	EventName   *string
	Date        time.Time
	Timing      *string
	EPSEstimate *float64
	ReportedEPS *float64
	SurprisePct *float64
}
