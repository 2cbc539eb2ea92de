package application

import (
	"fmt"
	"time"
)

// TimeParseError reports a timestamp the conversation produced that could
// not be parsed. Availability classification treats it as a missing time,
// never a fault.
type TimeParseError struct {
	Value string
	Err   error
}

// Error implements the error interface.
func (e *TimeParseError) Error() string {
	return fmt.Sprintf("application: cannot parse time %q", e.Value)
}

// Unwrap exposes the underlying parse failure.
func (e *TimeParseError) Unwrap() error {
	return e.Err
}

// acceptedTimeLayouts are tried in order when parsing extracted timestamps.
// Extraction is asked for ISO 8601 but zone-less variants show up in
// practice.
var acceptedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseExtractedTime parses a conversation-sourced timestamp. Zone-less
// values are interpreted in loc.
func parseExtractedTime(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var lastErr error
	for _, layout := range acceptedTimeLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, loc)
		}
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &TimeParseError{Value: value, Err: lastErr}
}
