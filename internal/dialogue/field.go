// Package dialogue models the per-user conversation state and the
// state machine resolving extracted intents into dialogue actions.
package dialogue

import (
	"bytes"
	"encoding/json"
)

// Extraction output uses magic strings for "not yet known" and "explicitly
// keep current". They are decoded into the Field union at the boundary and
// never travel further.
const (
	sentinelUnknown   = "unknown"
	sentinelUnchanged = "the_same"
)

type fieldKind uint8

const (
	fieldUnset fieldKind = iota
	fieldUnchanged
	fieldValue
)

// Field is a tagged union over an extracted string value: unset (not yet
// known), unchanged (explicitly keep the current value; only meaningful in
// the new-value half of an update), or a concrete value. The zero Field is
// unset.
type Field struct {
	kind  fieldKind
	value string
}

// Value wraps a concrete field value. An empty string yields an unset field.
func Value(v string) Field {
	if v == "" {
		return Field{}
	}
	return Field{kind: fieldValue, value: v}
}

// Unchanged marks a field as "explicitly keep the current value".
func Unchanged() Field {
	return Field{kind: fieldUnchanged}
}

// Known reports whether the field carries a concrete value.
func (f Field) Known() bool {
	return f.kind == fieldValue
}

// IsUnchanged reports whether the field is the keep-current sentinel.
func (f Field) IsUnchanged() bool {
	return f.kind == fieldUnchanged
}

// Get returns the concrete value and whether one is present.
func (f Field) Get() (string, bool) {
	if f.kind != fieldValue {
		return "", false
	}
	return f.value, true
}

// Or returns the concrete value or the fallback when none is present.
func (f Field) Or(fallback string) string {
	if f.kind == fieldValue {
		return f.value
	}
	return fallback
}

// UnmarshalJSON decodes extraction output. null, "" and "unknown" map to
// unset; "the_same" maps to unchanged; anything else is a concrete value.
// Non-string payloads degrade to unset rather than failing, per the
// untrusted-extraction policy.
func (f *Field) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = Field{}
		return nil
	}
	switch s {
	case "", sentinelUnknown:
		*f = Field{}
	case sentinelUnchanged:
		*f = Unchanged()
	default:
		*f = Value(s)
	}
	return nil
}

// MarshalJSON renders the field back into its wire shape so persisted state
// round-trips.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case fieldValue:
		return json.Marshal(f.value)
	case fieldUnchanged:
		return json.Marshal(sentinelUnchanged)
	default:
		return json.Marshal(sentinelUnknown)
	}
}
