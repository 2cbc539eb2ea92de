package scheduler

import (
	"errors"
	"time"
)

// DefaultSlotDuration is the slot length used when a caller does not supply
// one.
const DefaultSlotDuration = 60 * time.Minute

// ErrNoSlots is returned by Suggest when the search window contains no
// bookable slot. Callers distinguish it from an empty successful result so
// they can render dedicated messaging.
var ErrNoSlots = errors.New("scheduler: no available time slots")

// Suggest enumerates candidate slots of the given duration inside the search
// window, earliest first. Slots cascade from the window start in fixed steps
// and are not snapped to clock hours. A slot is kept only when Classify
// would report it available, which keeps suggestion and booking checks
// consistent by construction.
func Suggest(search TimeInterval, busy []BusyInterval, policy BlockedTimePolicy, slotDuration time.Duration) ([]TimeInterval, error) {
	if search.Incomplete() {
		return nil, ErrNoSlots
	}
	if slotDuration <= 0 {
		slotDuration = DefaultSlotDuration
	}

	var slots []TimeInterval
	for cur := search.Start; !cur.Add(slotDuration).After(search.End); cur = cur.Add(slotDuration) {
		candidate := TimeInterval{Start: cur, End: cur.Add(slotDuration)}
		if Classify(candidate, policy, busy, "") == VerdictAvailable {
			slots = append(slots, candidate)
		}
	}

	if len(slots) == 0 {
		return nil, ErrNoSlots
	}
	return slots, nil
}
