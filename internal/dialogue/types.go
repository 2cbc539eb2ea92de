package dialogue

// IntentKind names what the user wants done with the calendar.
type IntentKind string

const (
	IntentNone     IntentKind = "none"
	IntentSchedule IntentKind = "schedule"
	IntentList     IntentKind = "list"
	IntentCancel   IntentKind = "cancel"
	IntentUpdate   IntentKind = "update"
)

// ValidIntent reports whether the kind names an actionable intent.
func ValidIntent(kind IntentKind) bool {
	switch kind {
	case IntentSchedule, IntentList, IntentCancel, IntentUpdate:
		return true
	}
	return false
}

// EventFields is the partial event payload carried by an intent. For an
// update the same shape describes both the current half and the new-value
// half; unchanged sentinels are only meaningful in the latter.
type EventFields struct {
	EventID       Field    `json:"event_id"`
	EventName     Field    `json:"event_name"`
	StartTime     Field    `json:"start_time"`
	EndTime       Field    `json:"end_time"`
	Description   Field    `json:"description"`
	Location      Field    `json:"location"`
	InvitedPeople []string `json:"invited_people"`
}

// Intent is one extracted request. NewFields is populated for updates only
// and holds the replacement values.
type Intent struct {
	Kind      IntentKind  `json:"kind"`
	Fields    EventFields `json:"fields"`
	NewFields EventFields `json:"new_fields"`
}

// ExtractedData is the best-effort structured output of one extraction
// pass over the conversation. It is never trusted for correctness; missing
// or malformed parts default to their zero values.
type ExtractedData struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Intents  []Intent `json:"intents"`
}

// Merge folds newly extracted fields into pending ones with sticky
// semantics: explicit new values override, while unset and unchanged
// extractions never erase a previously known value. A non-empty invitee
// list replaces the pending one.
func Merge(pending, extracted EventFields) EventFields {
	merged := pending
	merged.EventID = mergeField(pending.EventID, extracted.EventID)
	merged.EventName = mergeField(pending.EventName, extracted.EventName)
	merged.StartTime = mergeField(pending.StartTime, extracted.StartTime)
	merged.EndTime = mergeField(pending.EndTime, extracted.EndTime)
	merged.Description = mergeField(pending.Description, extracted.Description)
	merged.Location = mergeField(pending.Location, extracted.Location)
	if len(extracted.InvitedPeople) > 0 {
		merged.InvitedPeople = extracted.InvitedPeople
	}
	return merged
}

func mergeField(old, new Field) Field {
	// Both a concrete value and the keep-current sentinel are explicit
	// statements; only an unset extraction leaves the pending value alone.
	if new.Known() || new.IsUnchanged() {
		return new
	}
	return old
}
