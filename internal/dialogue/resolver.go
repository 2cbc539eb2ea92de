package dialogue

// Step is the per-turn decision of the dialogue state machine.
type Step string

const (
	// StepGreet introduces the assistant on the first contact of a
	// conversation.
	StepGreet Step = "greet"
	// StepAskInfo requests the fields still missing for the pending intent.
	StepAskInfo Step = "ask_info"
	// StepAct executes the pending intent through the dispatcher.
	StepAct Step = "act"
	// StepFollowUp answers conversationally when no actionable intent was
	// extracted.
	StepFollowUp Step = "follow_up"
)

// Decide advances the state machine for one extracted intent. It merges
// extracted fields into the pending request with sticky semantics, then
// picks the next dialogue action. The pending intent survives failed or
// incomplete turns; only a successful action (reported by the caller via
// CompleteIntent) retires it.
func Decide(state *State, intent Intent) Step {
	if !state.Greeted {
		return StepGreet
	}

	if !ValidIntent(intent.Kind) {
		return StepFollowUp
	}

	if state.PendingIntent != intent.Kind {
		// A different intent replaces the pending request outright; sticky
		// merging only applies while the user keeps refining the same one.
		state.PendingIntent = intent.Kind
		state.PendingFields = intent.Fields
		state.PendingNewFields = intent.NewFields
	} else {
		state.PendingFields = Merge(state.PendingFields, intent.Fields)
		state.PendingNewFields = Merge(state.PendingNewFields, intent.NewFields)
	}

	switch intent.Kind {
	case IntentSchedule:
		if len(MissingScheduleFields(state.PendingFields, state.Email)) == 0 {
			return StepAct
		}
		return StepAskInfo
	case IntentCancel, IntentUpdate:
		// Even without a resolved event id the dispatcher acts: it switches
		// to pending disclosure and lets the user pick from their events.
		return StepAct
	case IntentList:
		return StepAct
	}
	return StepFollowUp
}

// MissingScheduleFields names the required schedule fields that are still
// unresolved. An empty result means the request is complete enough to book.
func MissingScheduleFields(fields EventFields, requesterEmail string) []string {
	var missing []string
	if !fields.EventName.Known() {
		missing = append(missing, "event_name")
	}
	if !fields.StartTime.Known() {
		missing = append(missing, "start_time")
	}
	if !fields.EndTime.Known() {
		missing = append(missing, "end_time")
	}
	if requesterEmail == "" {
		missing = append(missing, "email")
	}
	if len(fields.InvitedPeople) == 0 {
		missing = append(missing, "invited_people")
	}
	return missing
}
