package llm

import (
	"testing"

	"github.com/example/calendar-secretary/internal/dialogue"
)

func TestDecodeExtraction(t *testing.T) {
	t.Parallel()

	t.Run("well formed output", func(t *testing.T) {
		raw := `{"username":"Ana","email":"ana@x.com","intents":[{"kind":"schedule","fields":{"event_name":"Sync","start_time":"2025-06-02T10:00:00Z","end_time":"unknown","invited_people":["ana@x.com"]}}]}`
		data := DecodeExtraction(raw)

		if data.Username != "Ana" || data.Email != "ana@x.com" {
			t.Fatalf("identity not decoded: %+v", data)
		}
		if len(data.Intents) != 1 || data.Intents[0].Kind != dialogue.IntentSchedule {
			t.Fatalf("intent not decoded: %+v", data.Intents)
		}
		fields := data.Intents[0].Fields
		if got := fields.EventName.Or(""); got != "Sync" {
			t.Fatalf("event name = %q", got)
		}
		if fields.EndTime.Known() {
			t.Fatalf("unknown sentinel decoded as concrete value")
		}
	})

	t.Run("code fences tolerated", func(t *testing.T) {
		raw := "```json\n{\"username\":\"Ana\",\"email\":\"\",\"intents\":[]}\n```"
		if data := DecodeExtraction(raw); data.Username != "Ana" {
			t.Fatalf("fenced JSON not decoded: %+v", data)
		}
	})

	t.Run("malformed output defaults fully", func(t *testing.T) {
		data := DecodeExtraction("I could not produce JSON, sorry.")
		if data.Username != "" || data.Email != "" || len(data.Intents) != 0 {
			t.Fatalf("expected zero value on parse failure, got %+v", data)
		}
	})

	t.Run("implausible email dropped", func(t *testing.T) {
		data := DecodeExtraction(`{"username":"Ana","email":"not-an-address","intents":[]}`)
		if data.Email != "" {
			t.Fatalf("expected implausible email to be dropped, got %q", data.Email)
		}
	})

	t.Run("unrecognised kind becomes none", func(t *testing.T) {
		data := DecodeExtraction(`{"username":"","email":"","intents":[{"kind":"book_flight"}]}`)
		if len(data.Intents) != 1 || data.Intents[0].Kind != dialogue.IntentNone {
			t.Fatalf("expected intent kind none, got %+v", data.Intents)
		}
	})

	t.Run("update halves decode separately", func(t *testing.T) {
		raw := `{"username":"","email":"","intents":[{"kind":"update","fields":{"event_id":"evt-1","start_time":"2025-06-02T10:00:00Z"},"new_fields":{"start_time":"2025-06-02T14:00:00Z","event_name":"the_same"}}]}`
		data := DecodeExtraction(raw)
		if len(data.Intents) != 1 {
			t.Fatalf("expected one intent, got %+v", data.Intents)
		}
		intent := data.Intents[0]
		if got := intent.Fields.EventID.Or(""); got != "evt-1" {
			t.Fatalf("current half event id = %q", got)
		}
		if !intent.NewFields.EventName.IsUnchanged() {
			t.Fatalf("the_same not decoded as unchanged")
		}
		if got := intent.NewFields.StartTime.Or(""); got != "2025-06-02T14:00:00Z" {
			t.Fatalf("new start time = %q", got)
		}
	})
}
