package calendar

import "time"

// Impact is the market-significance label of an economic event, sourced
// from the calendar's icon class rather than any text content.
type Impact string

const (
	// ImpactUnknown marks rows whose impact cell carried no recognized
	// icon class. Persisted as NULL.
	ImpactUnknown     Impact = ""
	ImpactHigh        Impact = "High"
	ImpactMedium      Impact = "Medium"
	ImpactLow         Impact = "Low"
	ImpactNonEconomic Impact = "Non-Economic"
)

// EconomicEvent is one resolved calendar row. Instant is always UTC; for
// all-day events it is pinned to midnight of the event's day.
type EconomicEvent struct {
	Instant  time.Time
	AllDay   bool
	Currency string
	Impact   Impact
	Title    string
	Actual   string
	Forecast string
	Previous string
}

// DayOf truncates t to its UTC calendar day, midnight UTC. The result is
// comparable and used as a map key throughout.
func DayOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// GroupByDay folds a parsed event sequence into a day-keyed map,
// preserving document order within each day. The day is taken from the
// UTC instant, so an event whose local time crossed midnight during
// conversion lands on its UTC day, not the printed one.
func GroupByDay(events []EconomicEvent) map[time.Time][]EconomicEvent {
	byDay := make(map[time.Time][]EconomicEvent)
	for _, event := range events {
		day := DayOf(event.Instant)
		byDay[day] = append(byDay[day], event)
	}
	return byDay
}
