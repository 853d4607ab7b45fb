package earnings

import "time"

// Record is one earnings row from the paginated feed. Numeric fields are
// pointers because the feed reports them as null until the figures exist
// (estimates before the event, actuals after).
type Record struct {
	Symbol      string
	Company     string
	MarketCap   *float64
	EventName   string
	Date        time.Time
	Timing      string
	EPSEstimate *float64
	ReportedEPS *float64
	SurprisePct *float64
}

// GroupByDay folds records into day-keyed, company-keyed groups,
// preserving arrival order within a company.
func GroupByDay(records []Record) map[time.Time]map[string][]Record {
	byDay := make(map[time.Time]map[string][]Record)

	for _, record := range records {
		day := dayOf(record.Date)
		companies, ok := byDay[day]
		if !ok {
			companies = make(map[string][]Record)
			byDay[day] = companies
		}
		companies[record.Company] = append(companies[record.Company], record)
	}

	return byDay
}

func dayOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
