package visibility

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/calendar-secretary/internal/calendar"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	events := []calendar.Event{
		{ID: "evt-1", Attendees: []string{"a@x.com", "boss@x.com"}},
		{ID: "evt-2", Attendees: []string{"b@x.com"}},
		{ID: "evt-3"},
	}

	t.Run("boss sees all events", func(t *testing.T) {
		got := Filter(events, Viewer{Email: "boss@x.com", Role: RoleBoss})
		if diff := cmp.Diff(events, got); diff != "" {
			t.Fatalf("boss view mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("other sees only attended events", func(t *testing.T) {
		got := Filter(events, Viewer{Email: "a@x.com", Role: RoleOther})
		if len(got) != 1 || got[0].ID != "evt-1" {
			t.Fatalf("expected only evt-1, got %v", got)
		}
	})

	t.Run("other without email sees nothing", func(t *testing.T) {
		got := Filter(events, Viewer{Role: RoleOther})
		if len(got) != 0 {
			t.Fatalf("expected no events, got %v", got)
		}
	})
}
