package scheduler

// Verdict is the outcome of an availability check for a proposed window.
type Verdict string

const (
	// VerdictAvailable indicates the window is free to book.
	VerdictAvailable Verdict = "available"
	// VerdictTimeMissing indicates one or both endpoints are unresolved.
	VerdictTimeMissing Verdict = "time_not_provided"
	// VerdictReverted indicates the start lies after the end.
	VerdictReverted Verdict = "time_reverted"
	// VerdictBlockedRest indicates the window intrudes on the rest-hours policy.
	VerdictBlockedRest Verdict = "rest_time"
	// VerdictAlreadyBusy indicates the window overlaps an existing event.
	VerdictAlreadyBusy Verdict = "already_busy"
	// VerdictSameEvent indicates the window belongs to the event identified by
	// the candidate id, so it may keep its own slot.
	VerdictSameEvent Verdict = "same_event"
)

// Classify evaluates a proposed window against the rest-hours policy and a
// set of busy intervals. Checks are ordered and the first match wins:
// missing endpoints, reverted endpoints, blocked rest hours, then per busy
// event either a candidate-id match or an overlap. candidateID identifies
// the event being rescheduled so an update does not conflict with itself;
// pass the empty string when no event is being kept.
//
// Classify is pure: busy intervals come from a caller-supplied query result
// and nothing is mutated.
func Classify(window TimeInterval, policy BlockedTimePolicy, busy []BusyInterval, candidateID string) Verdict {
	if window.Incomplete() {
		return VerdictTimeMissing
	}
	if window.Reverted() {
		return VerdictReverted
	}
	if policy.Blocks(window) {
		return VerdictBlockedRest
	}
	for _, b := range busy {
		if candidateID != "" && b.ID == candidateID {
			return VerdictSameEvent
		}
		if window.Overlaps(b.TimeInterval) {
			return VerdictAlreadyBusy
		}
	}
	return VerdictAvailable
}
