package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	dateLayout = "Mon Jan 2"
	sourceZone = "Europe/Berlin"
)

var clockLayouts = []string{"3:04pm", "3:04 pm"}

// resolveDate anchors a year-less "Thu Feb 26" date to a concrete year:
// more than 90 days ahead of today means last year (the weekly page
// wrapped a year boundary), more than 270 days behind means next year.
// today must be a UTC midnight as produced by DayOf.
func resolveDate(raw string, today time.Time) (time.Time, error) {
	cleaned := strings.Join(strings.Fields(raw), " ")

	parsed, err := time.Parse(dateLayout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", raw, err)
	}

	year := today.Year()
	candidate, ok := dateInYear(year, parsed.Month(), parsed.Day())
	if !ok {
		return time.Time{}, fmt.Errorf("date %q does not exist in %d", raw, year)
	}

	delta := int(candidate.Sub(today).Hours() / 24)
	switch {
	case delta > 90:
		year--
	case delta < -270:
		year++
	default:
		return candidate, nil
	}

	resolved, ok := dateInYear(year, parsed.Month(), parsed.Day())
	if !ok {
		return time.Time{}, fmt.Errorf("date %q does not exist in %d", raw, year)
	}

	return resolved, nil
}

// dateInYear builds a midnight UTC date, rejecting month/day combinations
// time.Date would silently normalize (Feb 29 in a non-leap year).
func dateInYear(year int, month time.Month, day int) (time.Time, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

// parseClockTime reads the 12-hour forms "8:30am" and "8:30 am",
// case-insensitive. Anything else, including the "All Day" and
// "Tentative" sentinels, reports false.
func parseClockTime(raw string) (time.Time, bool) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return time.Time{}, false
	}

	for _, layout := range clockLayouts {
		if clock, err := time.Parse(layout, lowered); err == nil {
			return clock, true
		}
	}

	return time.Time{}, false
}

// resolveInstant combines the carried day and raw time into a UTC instant
// plus the all-day flag. Clock times are wall clock in the source zone on
// that specific day, so the DST offset is the day's own.
func (p *Parser) resolveInstant(day time.Time, timeRaw string) (time.Time, bool) {
	clock, ok := parseClockTime(timeRaw)
	if !ok {
		return day, true
	}

	local := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, p.loc)
	return local.UTC(), false
}
