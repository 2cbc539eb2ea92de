package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/calendar-secretary/internal/calendar"
	"github.com/example/calendar-secretary/internal/scheduler"
)

// renderEvents formats a numbered meeting list for the conversation
// context. The ordinal is what users refer to; the provider event id is
// carried in a trailing reference marker that response generation is
// instructed never to surface.
func renderEvents(events []calendar.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "No events found."
	}

	lines := make([]string, 0, len(events))
	for i, event := range events {
		participants := strings.Join(event.Attendees, ", ")
		location := event.Location
		if location == "" {
			location = "online"
		}
		lines = append(lines, fmt.Sprintf(
			"#%d: Meeting: %s, Time: %s to %s, Participants: %s, Location: %s [ref:%s]",
			i+1,
			orUntitled(event.Title),
			event.Start.In(loc).Format("2006-01-02 15:04"),
			event.End.In(loc).Format("2006-01-02 15:04"),
			participants,
			location,
			event.ID,
		))
	}
	return "MEETINGS OF THE USER:\n" + strings.Join(lines, "\n")
}

// renderSlots formats slot suggestions, capped so users are never flooded.
func renderSlots(slots []scheduler.TimeInterval, loc *time.Location) string {
	if len(slots) == 0 {
		return "No available time slots found."
	}
	if len(slots) > maxRenderedSlots {
		slots = slots[:maxRenderedSlots]
	}

	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf(
			"%s to %s",
			slot.Start.In(loc).Format("2006-01-02 15:04"),
			slot.End.In(loc).Format("15:04"),
		))
	}
	return "AVAILABLE TIME SLOT SUGGESTIONS:\n" + strings.Join(lines, "\n")
}

func orUntitled(title string) string {
	if title == "" {
		return "No Title"
	}
	return title
}

// verdictReason maps a non-available verdict to the failure reason embedded
// in action results.
func verdictReason(verdict scheduler.Verdict) string {
	switch verdict {
	case scheduler.VerdictReverted:
		return "start time cannot be later than end time"
	case scheduler.VerdictTimeMissing:
		return "start and end time of the event must be provided"
	case scheduler.VerdictBlockedRest:
		return "this time is blocked because it is in the boss' rest time"
	case scheduler.VerdictAlreadyBusy:
		return "the time slot is already occupied"
	default:
		return "unknown"
	}
}
