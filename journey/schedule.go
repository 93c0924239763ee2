package journey

import (
	"strconv"
	"strings"
	"time"
)

// rolloverWindow is how far in the past a parsed schedule time may sit before
// it is assumed to mean the next calendar day.
const rolloverWindow = 6 * time.Hour

// ParseScheduleTime anchors an "HH:MM" schedule string to the calendar day of
// now, in now's location. Invalid or empty input yields the zero time, which
// callers must treat as "unknown", never as an actual instant.
//
// When addDay is false and the parsed time sits more than six hours behind
// now, the schedule is taken to mean the next calendar day and rolled forward.
// This handles trains whose timetable crosses midnight; a train legitimately
// running more than six hours behind schedule will be misread. The window is
// a long-standing approximation, not a guarantee.
func ParseScheduleTime(hhmm string, now time.Time, addDay bool) time.Time {
	h, m, ok := splitClock(hhmm)
	if !ok {
		return time.Time{}
	}
	t := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if addDay {
		return t.AddDate(0, 0, 1)
	}
	if now.Sub(t) > rolloverWindow {
		return t.AddDate(0, 0, 1)
	}
	return t
}

// ValidScheduleTime reports whether s is a well-formed 24-hour "HH:MM" string.
func ValidScheduleTime(s string) bool {
	_, _, ok := splitClock(s)
	return ok
}

func splitClock(hhmm string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// ScheduleTravelTime derives a travel duration between two stoppages from
// their scheduled clock times for the given leg direction. Candidates are
// tried in order: the leg's own direction as written, the same with the
// arrival rolled past midnight, then the opposite direction's times in the
// same two forms. The first candidate whose times parse and whose difference
// is positive wins; ok is false when no candidate is usable.
func ScheduleTravelTime(from, to Stoppage, direction Direction) (time.Duration, bool) {
	type candidate struct {
		from, to string
		rollover bool
	}
	candidates := []candidate{
		{from.timeFor(direction), to.timeFor(direction), false},
		{from.timeFor(direction), to.timeFor(direction), true},
		{from.timeFor(direction.Opposite()), to.timeFor(direction.Opposite()), false},
		{from.timeFor(direction.Opposite()), to.timeFor(direction.Opposite()), true},
	}

	for _, c := range candidates {
		fh, fm, ok := splitClock(c.from)
		if !ok {
			continue
		}
		th, tm, ok := splitClock(c.to)
		if !ok {
			continue
		}
		start := time.Duration(fh)*time.Hour + time.Duration(fm)*time.Minute
		end := time.Duration(th)*time.Hour + time.Duration(tm)*time.Minute
		if c.rollover {
			end += 24 * time.Hour
		}
		if d := end - start; d > 0 {
			return d, true
		}
	}
	return 0, false
}
