package calendar

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Cell class markers within one event row.
const (
	dateCell     = ".calendar__date"
	timeCell     = ".calendar__time"
	currencyCell = ".calendar__currency"
	impactCell   = ".calendar__impact"
	titleCell    = ".calendar__event-title"
	actualCell   = ".calendar__actual"
	forecastCell = ".calendar__forecast"
	previousCell = ".calendar__previous"
)

// rowState is the carry-over state threaded through a table scan: a
// printed date applies to every following row until the next date cell, a
// printed time only to following rows of the same day.
type rowState struct {
	day     time.Time
	hasDay  bool
	timeRaw string
}

type Parser struct {
	loc *time.Location
	now func() time.Time
}

func NewParser() (*Parser, error) {
	return newParser(time.Now)
}

func newParser(now func() time.Time) (*Parser, error) {
	loc, err := time.LoadLocation(sourceZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load source timezone: %w", err)
	}

	return &Parser{loc: loc, now: now}, nil
}

// Run walks the event rows of an extracted calendar table fragment in
// document order and resolves each into an EconomicEvent. A row with an
// unparseable date cell is dropped on its own; the scan continues with
// the previously carried day. An empty table yields an empty sequence,
// not an error.
func (p *Parser) Run(tableHTML string) ([]EconomicEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar table: %w", err)
	}

	today := DayOf(p.now())
	var events []EconomicEvent
	var state rowState

	doc.Find("tr[data-event-id]").Each(func(_ int, row *goquery.Selection) {
		if raw := cellText(row, dateCell); raw != "" {
			day, err := resolveDate(raw, today)
			if err != nil {
				slog.Debug("Dropping calendar row", "error", err)
				return
			}
			state.day = day
			state.hasDay = true
			state.timeRaw = ""
		}

		if raw := cellText(row, timeCell); raw != "" {
			state.timeRaw = raw
		}

		// No instant can be formed before the first date cell.
		if !state.hasDay {
			slog.Debug("Skipping calendar row before first date cell")
			return
		}

		instant, allDay := p.resolveInstant(state.day, state.timeRaw)

		events = append(events, EconomicEvent{
			Instant:  instant,
			AllDay:   allDay,
			Currency: cellText(row, currencyCell),
			Impact:   classifyImpact(row.Find(impactCell).First()),
			Title:    cellText(row, titleCell),
			Actual:   cellText(row, actualCell),
			Forecast: cellText(row, forecastCell),
			Previous: cellText(row, previousCell),
		})
	})

	return events, nil
}

// cellText returns the trimmed text of the first cell matching marker, or
// "" when the row has no such cell. Both cases mean "no value".
func cellText(row *goquery.Selection, marker string) string {
	cell := row.Find(marker).First()
	if cell.Length() == 0 {
		return ""
	}

	return strings.TrimSpace(cell.Text())
}
