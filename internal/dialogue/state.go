package dialogue

import (
	"time"

	"github.com/example/calendar-secretary/internal/visibility"
)

// DefaultExpiry is the inactivity threshold after which a conversation is
// discarded and restarted.
const DefaultExpiry = 24 * time.Hour

// Turn is one entry of the conversation log.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	TurnUser      = "user"
	TurnAssistant = "assistant"
	TurnSystem    = "system"
)

// State is the persisted per-user conversation context. Exactly one State
// exists per user id; it is exclusively owned by the processing pipeline for
// the duration of one message and held by the state store between calls.
type State struct {
	UserID           string          `json:"user_id"`
	Role             visibility.Role `json:"role"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	Greeted          bool            `json:"greeted"`
	PendingIntent    IntentKind      `json:"pending_intent"`
	PendingFields    EventFields     `json:"pending_fields"`
	PendingNewFields EventFields     `json:"pending_new_fields"`
	Log              []Turn          `json:"log"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewState creates a fresh conversation for a user.
func NewState(userID string, now time.Time) State {
	return State{
		UserID:        userID,
		Role:          visibility.RoleOther,
		PendingIntent: IntentNone,
		UpdatedAt:     now,
	}
}

// Expired reports whether the state has been inactive longer than ttl.
func Expired(state State, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultExpiry
	}
	return now.Sub(state.UpdatedAt) > ttl
}

// Append records a conversation turn.
func (s *State) Append(role, content string) {
	s.Log = append(s.Log, Turn{Role: role, Content: content})
}

// CompleteIntent clears the pending intent after a successful action, so the
// next turn starts a fresh request.
func (s *State) CompleteIntent() {
	s.PendingIntent = IntentNone
	s.PendingFields = EventFields{}
	s.PendingNewFields = EventFields{}
}

// Viewer derives the visibility viewer for this conversation.
func (s State) Viewer() visibility.Viewer {
	return visibility.Viewer{Email: s.Email, Role: s.Role}
}
