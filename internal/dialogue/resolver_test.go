package dialogue

import (
	"testing"
	"time"
)

func completeSchedule() Intent {
	return Intent{
		Kind: IntentSchedule,
		Fields: EventFields{
			EventName:     Value("Design sync"),
			StartTime:     Value("2025-06-02T10:00:00Z"),
			EndTime:       Value("2025-06-02T11:00:00Z"),
			InvitedPeople: []string{"a@x.com"},
		},
	}
}

func TestDecideGreetsFirst(t *testing.T) {
	t.Parallel()

	state := NewState("user-1", time.Now())
	state.Email = "a@x.com"

	if step := Decide(&state, completeSchedule()); step != StepGreet {
		t.Fatalf("expected %q before greeting, got %q", StepGreet, step)
	}
}

func TestDecideSchedule(t *testing.T) {
	t.Parallel()

	t.Run("complete request acts", func(t *testing.T) {
		state := NewState("user-1", time.Now())
		state.Greeted = true
		state.Email = "a@x.com"

		if step := Decide(&state, completeSchedule()); step != StepAct {
			t.Fatalf("expected %q, got %q", StepAct, step)
		}
	})

	t.Run("missing time asks for info", func(t *testing.T) {
		state := NewState("user-1", time.Now())
		state.Greeted = true
		state.Email = "a@x.com"

		intent := completeSchedule()
		intent.Fields.StartTime = Field{}
		intent.Fields.EndTime = Field{}

		if step := Decide(&state, intent); step != StepAskInfo {
			t.Fatalf("expected %q, got %q", StepAskInfo, step)
		}
		missing := MissingScheduleFields(state.PendingFields, state.Email)
		if len(missing) != 2 {
			t.Fatalf("expected start_time and end_time missing, got %v", missing)
		}
	})

	t.Run("missing requester email asks for info", func(t *testing.T) {
		state := NewState("user-1", time.Now())
		state.Greeted = true

		if step := Decide(&state, completeSchedule()); step != StepAskInfo {
			t.Fatalf("expected %q, got %q", StepAskInfo, step)
		}
	})

	t.Run("fields accumulate across turns", func(t *testing.T) {
		state := NewState("user-1", time.Now())
		state.Greeted = true
		state.Email = "a@x.com"

		first := Intent{Kind: IntentSchedule, Fields: EventFields{EventName: Value("Sync")}}
		if step := Decide(&state, first); step != StepAskInfo {
			t.Fatalf("expected %q after partial extraction, got %q", StepAskInfo, step)
		}

		second := Intent{Kind: IntentSchedule, Fields: EventFields{
			StartTime:     Value("2025-06-02T10:00:00Z"),
			EndTime:       Value("2025-06-02T11:00:00Z"),
			InvitedPeople: []string{"a@x.com"},
		}}
		if step := Decide(&state, second); step != StepAct {
			t.Fatalf("expected %q once fields accumulate, got %q", StepAct, step)
		}
		if got := state.PendingFields.EventName.Or(""); got != "Sync" {
			t.Fatalf("event name lost across turns, got %q", got)
		}
	})
}

func TestDecideCancelAndUpdateActWithoutEventID(t *testing.T) {
	t.Parallel()

	for _, kind := range []IntentKind{IntentCancel, IntentUpdate} {
		state := NewState("user-1", time.Now())
		state.Greeted = true

		if step := Decide(&state, Intent{Kind: kind}); step != StepAct {
			t.Fatalf("%s: expected %q, got %q", kind, StepAct, step)
		}
	}
}

func TestDecideListAlwaysActs(t *testing.T) {
	t.Parallel()

	state := NewState("user-1", time.Now())
	state.Greeted = true

	if step := Decide(&state, Intent{Kind: IntentList}); step != StepAct {
		t.Fatalf("expected %q, got %q", StepAct, step)
	}
}

func TestDecideFollowUpOnUnparseableIntent(t *testing.T) {
	t.Parallel()

	state := NewState("user-1", time.Now())
	state.Greeted = true
	state.PendingIntent = IntentSchedule
	state.PendingFields = EventFields{EventName: Value("Sync")}

	if step := Decide(&state, Intent{Kind: IntentNone}); step != StepFollowUp {
		t.Fatalf("expected %q, got %q", StepFollowUp, step)
	}
	// The pending request survives the conversational detour.
	if state.PendingIntent != IntentSchedule {
		t.Fatalf("pending intent lost on follow-up turn")
	}
}

func TestDecideNewIntentReplacesPending(t *testing.T) {
	t.Parallel()

	state := NewState("user-1", time.Now())
	state.Greeted = true
	state.PendingIntent = IntentSchedule
	state.PendingFields = EventFields{EventName: Value("Sync")}

	Decide(&state, Intent{Kind: IntentCancel, Fields: EventFields{EventID: Value("evt-9")}})

	if state.PendingIntent != IntentCancel {
		t.Fatalf("pending intent not replaced, got %q", state.PendingIntent)
	}
	if state.PendingFields.EventName.Known() {
		t.Fatalf("stale schedule fields leaked into cancel request")
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)
	state := NewState("user-1", now.Add(-25*time.Hour))

	if !Expired(state, now, DefaultExpiry) {
		t.Fatalf("expected state older than 24h to be expired")
	}
	if Expired(NewState("user-1", now.Add(-23*time.Hour)), now, DefaultExpiry) {
		t.Fatalf("state younger than 24h must not expire")
	}
}

func TestCompleteIntent(t *testing.T) {
	t.Parallel()

	state := NewState("user-1", time.Now())
	state.PendingIntent = IntentUpdate
	state.PendingFields = EventFields{EventID: Value("evt-1")}
	state.PendingNewFields = EventFields{StartTime: Value("2025-06-02T10:00:00Z")}

	state.CompleteIntent()

	if state.PendingIntent != IntentNone {
		t.Fatalf("intent not cleared")
	}
	if state.PendingFields.EventID.Known() || state.PendingNewFields.StartTime.Known() {
		t.Fatalf("pending fields not cleared")
	}
}
