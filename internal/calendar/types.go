// Package calendar defines the provider-independent event model and the
// request/response shapes exchanged with a remote calendar service.
package calendar

import "time"

// StatusConfirmed is the provider status reported for a successfully applied
// create or update.
const StatusConfirmed = "confirmed"

// Event represents an existing calendar entry. Events are sourced from the
// provider per query and never persisted locally; their lifetime is one
// dispatch call.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
	Organizer   string
	Attendees   []string
	MeetLink    string
}

// CreateInput carries the fields for a new event.
type CreateInput struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Attendees   []string
}

// CreateResult reports the outcome of a create call.
type CreateResult struct {
	ID       string
	Status   string
	MeetLink string
}

// UpdatePatch carries a partial update. Nil pointer fields and a nil
// attendee slice leave the corresponding server-side values unchanged.
type UpdatePatch struct {
	Title       *string
	Start       *time.Time
	End         *time.Time
	Description *string
	Location    *string
	Attendees   []string
}

// Empty reports whether the patch carries no change at all.
func (p UpdatePatch) Empty() bool {
	return p.Title == nil && p.Start == nil && p.End == nil &&
		p.Description == nil && p.Location == nil && p.Attendees == nil
}

// UpdateResult reports the outcome of an update call.
type UpdateResult struct {
	Status string
}

// ListQuery bounds an event listing.
type ListQuery struct {
	TimeMin     time.Time
	TimeMax     time.Time
	MaxResults  int64
	IncludePast bool
}
