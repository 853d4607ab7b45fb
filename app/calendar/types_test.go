package calendar

import (
	"testing"
	"time"
)

func TestDayOf(t *testing.T) {
	loc, err := time.LoadLocation(sourceZone)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "truncates to midnight",
			in:   time.Date(2026, time.February, 26, 14, 45, 12, 0, time.UTC),
			want: time.Date(2026, time.February, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "converts zones before truncating",
			in:   time.Date(2026, time.July, 15, 0, 30, 0, 0, loc),
			want: time.Date(2026, time.July, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayOf(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got: %v", tt.want, got)
			}
			if got.Location() != time.UTC {
				t.Error("Expected UTC location")
			}
		})
	}
}

func TestGroupByDay(t *testing.T) {
	day1 := time.Date(2026, time.February, 26, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC)

	events := []EconomicEvent{
		{Instant: day1.Add(7*time.Hour + 30*time.Minute), Title: "CPI m/m"},
		{Instant: day1.Add(9 * time.Hour), Title: "Crude Oil Inventories"},
		{Instant: day2, AllDay: true, Title: "Bank Holiday"},
	}

	byDay := GroupByDay(events)

	if len(byDay) != 2 {
		t.Fatalf("Expected 2 days, got: %d", len(byDay))
	}
	if len(byDay[day1]) != 2 {
		t.Fatalf("Expected 2 events on day one, got: %d", len(byDay[day1]))
	}

	// Document order within a day is preserved.
	if byDay[day1][0].Title != "CPI m/m" || byDay[day1][1].Title != "Crude Oil Inventories" {
		t.Errorf("Unexpected order: %s / %s", byDay[day1][0].Title, byDay[day1][1].Title)
	}
	if len(byDay[day2]) != 1 || byDay[day2][0].Title != "Bank Holiday" {
		t.Error("Expected the all-day event on day two")
	}
}

func TestGroupByDayUsesUTCDay(t *testing.T) {
	// 00:30 CEST on Jul 15 is 22:30 UTC on Jul 14; the event groups under
	// its UTC day.
	instant := time.Date(2026, time.July, 14, 22, 30, 0, 0, time.UTC)
	byDay := GroupByDay([]EconomicEvent{{Instant: instant, Title: "Daylight Saving Time Shift"}})

	day := time.Date(2026, time.July, 14, 0, 0, 0, 0, time.UTC)
	if len(byDay[day]) != 1 {
		t.Fatalf("Expected event grouped under %v", day)
	}
}
