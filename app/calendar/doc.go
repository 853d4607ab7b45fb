// Package calendar parses the weekly economic calendar page into resolved
// UTC events.
//
// # Source Conventions
//
// The calendar is a single HTML table (class "calendar__table") of event
// rows identified by a data-event-id attribute; rows without the attribute
// are day separators or decoration. Cell values are located by class
// markers (calendar__date, calendar__time, calendar__currency,
// calendar__impact, calendar__event-title, calendar__actual,
// calendar__forecast, calendar__previous).
//
// Date format:
//
//	"Thu Feb 26" with no year. The weekday is display-only and ignored.
//	The year is inferred relative to today: a candidate more than 90 days
//	ahead belongs to last year (the page wrapped a year boundary), more
//	than 270 days behind to next year. The window is asymmetric on
//	purpose; keep it that way.
//
// Carry-over:
//
//	Dates and times print only on the first row of a group and implicitly
//	apply to the rows below. A new date resets the carried time, so a
//	timeless row at the start of a day is an all-day event, not a repeat
//	of yesterday's last time.
//
// Time format:
//
//	12-hour wall clock ("8:30am", "11:30 PM") in Central European time,
//	which observes DST; conversion to UTC uses the offset of the specific
//	date. "All Day", "Tentative", blank cells, and any other unparseable
//	label mean the event has no clock time and is pinned to midnight UTC
//	of its day, flagged all-day. A late local time may land on a
//	different UTC day than the printed one.
//
// Impact encoding:
//
//	Severity lives in an icon's CSS class, "icon--ff-impact-<suffix>":
//	red=High, ora=Medium, yel=Low, gra=Non-Economic. Anything else is
//	unknown and stored as NULL.
//
// Scanning is strictly sequential in document order because of the
// carried state. A Parser holds no per-call state and is safe for
// concurrent use.
package calendar
