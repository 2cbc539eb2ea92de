// Package application orchestrates one conversation turn: it resolves
// extracted intents against the dialogue state machine, dispatches calendar
// actions, and assembles the context handed to response generation.
package application

import (
	"context"
	"time"

	"github.com/example/calendar-secretary/internal/calendar"
	"github.com/example/calendar-secretary/internal/dialogue"
	"github.com/example/calendar-secretary/internal/visibility"
)

// ActionResult reports the outcome of one dispatched intent. Detail is the
// internal result text appended to the conversation for response generation;
// it is never shown verbatim to the end user.
type ActionResult struct {
	Success bool
	Detail  string
}

// CalendarProvider captures the calendar interactions needed by the
// dispatcher.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, input calendar.CreateInput) (calendar.CreateResult, error)
	CancelEvent(ctx context.Context, eventID string) (bool, error)
	UpdateEvent(ctx context.Context, eventID string, patch calendar.UpdatePatch) (calendar.UpdateResult, error)
	ListEvents(ctx context.Context, query calendar.ListQuery) ([]calendar.Event, error)
}

// ConversationModel captures the language-model capabilities the pipeline
// consumes. Extraction output is best effort and never authoritative.
type ConversationModel interface {
	Extract(ctx context.Context, conversation string) (dialogue.ExtractedData, error)
	Generate(ctx context.Context, log []dialogue.Turn, role visibility.Role) (string, error)
}

// StateStore captures the persistence interactions for conversation state.
type StateStore interface {
	LoadState(ctx context.Context, userID string) (dialogue.State, error)
	SaveState(ctx context.Context, state dialogue.State) error
}

// BossIdentity pins down the single privileged calendar owner. A message
// from any of the external ids is treated as the boss regardless of what
// extraction claims.
type BossIdentity struct {
	Name        string
	Email       string
	ExternalIDs []string
}

// Matches reports whether the transport-level user id belongs to the boss.
func (b BossIdentity) Matches(userID string) bool {
	for _, id := range b.ExternalIDs {
		if id != "" && id == userID {
			return true
		}
	}
	return false
}

// Defaults applied by the dispatcher when listing without explicit bounds.
const (
	defaultListWindow    = 7 * 24 * time.Hour
	contextLookBack      = 30 * 24 * time.Hour
	contextLookAhead     = 90 * 24 * time.Hour
	maxRenderedSlots     = 5
	suggestionSearchSpan = 7 * 24 * time.Hour
)
