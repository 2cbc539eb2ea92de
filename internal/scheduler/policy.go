package scheduler

import "time"

// TimeOfDayWindow is a recurring daily window expressed as offsets from
// midnight, half-open [Start, End). End may be a full 24h to cover the rest
// of the day.
type TimeOfDayWindow struct {
	Start time.Duration
	End   time.Duration
}

// BlockedTimePolicy describes the recurring weekly rest hours during which
// no meeting may be placed. The weekday windows apply identically to each of
// the five weekdays; weekends are an all-or-nothing toggle. A policy is
// built once at startup and never mutated.
type BlockedTimePolicy struct {
	Weekday        []TimeOfDayWindow
	WeekendBlocked bool
	Location       *time.Location
}

// DefaultBlockedTimePolicy returns the standard rest-hours policy: weekday
// nights from 20:00 through 08:00 the next morning, and entire weekends.
func DefaultBlockedTimePolicy(loc *time.Location) BlockedTimePolicy {
	if loc == nil {
		loc = time.UTC
	}
	return BlockedTimePolicy{
		Weekday: []TimeOfDayWindow{
			{Start: 0, End: 8 * time.Hour},
			{Start: 20 * time.Hour, End: 24 * time.Hour},
		},
		WeekendBlocked: true,
		Location:       loc,
	}
}

// Blocks reports whether any instant of the half-open window falls inside a
// blocked period. The check intersects the window against the recurring
// weekly rule day by day, so violations shorter than a minute are caught.
func (p BlockedTimePolicy) Blocks(window TimeInterval) bool {
	if window.Incomplete() || window.Reverted() || !window.Start.Before(window.End) {
		return false
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	start := window.Start.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	for day.Before(window.End) {
		next := day.AddDate(0, 0, 1)
		if isWeekend(day.Weekday()) {
			if p.WeekendBlocked && window.Overlaps(TimeInterval{Start: day, End: next}) {
				return true
			}
		} else {
			for _, w := range p.Weekday {
				blocked := TimeInterval{Start: day.Add(w.Start), End: day.Add(w.End)}
				if window.Overlaps(blocked) {
					return true
				}
			}
		}
		day = next
	}
	return false
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
