package scheduler

import "time"

// TimeInterval is a half-open time window [Start, End).
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the receiver and other share any instant under
// half-open semantics. The test is symmetric and an interval with Start
// before End always overlaps itself.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Reverted reports whether the interval endpoints are swapped. A reverted
// interval is an error condition, never silently corrected.
func (iv TimeInterval) Reverted() bool {
	return iv.Start.After(iv.End)
}

// Incomplete reports whether either endpoint is unresolved.
func (iv TimeInterval) Incomplete() bool {
	return iv.Start.IsZero() || iv.End.IsZero()
}

// Duration returns the interval length. Callers must ensure the interval is
// not reverted.
func (iv TimeInterval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// BusyInterval is an occupied calendar window identified by an opaque
// provider-issued event id.
type BusyInterval struct {
	ID string
	TimeInterval
}
