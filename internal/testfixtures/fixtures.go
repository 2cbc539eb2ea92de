// Package testfixtures provides deterministic clocks and identifier
// generators for tests.
package testfixtures

import "time"

var referenceTime = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}
