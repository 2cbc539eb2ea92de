// Package visibility enforces the role-based disclosure boundary between
// calendar data and response generation.
package visibility

import "github.com/example/calendar-secretary/internal/calendar"

// Role classifies a conversation participant. Exactly one identity is the
// boss; everyone else is "other".
type Role string

const (
	// RoleBoss is the privileged calendar owner.
	RoleBoss Role = "boss"
	// RoleOther is any non-privileged requester.
	RoleOther Role = "other"
)

// Viewer identifies who is asking to see calendar data.
type Viewer struct {
	Email string
	Role  Role
}

// Filter returns the events the viewer may see. The boss sees everything;
// any other viewer sees only events that list their email as an attendee.
// This is the sole privacy boundary: filtered output is the only calendar
// data ever handed to response generation.
func Filter(events []calendar.Event, viewer Viewer) []calendar.Event {
	if viewer.Role == RoleBoss {
		return events
	}

	visible := make([]calendar.Event, 0, len(events))
	for _, event := range events {
		if attends(event, viewer.Email) {
			visible = append(visible, event)
		}
	}
	return visible
}

func attends(event calendar.Event, email string) bool {
	if email == "" {
		return false
	}
	for _, attendee := range event.Attendees {
		if attendee == email {
			return true
		}
	}
	return false
}
