package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/calendar-secretary/internal/dialogue"
	"github.com/example/calendar-secretary/internal/persistence"
	"github.com/example/calendar-secretary/internal/visibility"
)

// fallbackReply is returned when response generation is unavailable. The
// user always gets exactly one non-empty reply per inbound message.
const fallbackReply = "Sorry, I am having trouble answering right now. Please try again in a moment."

// Pipeline processes one inbound message end to end: load state, extract
// intents, advance the dialogue, dispatch actions, generate the reply, and
// persist the state. Messages from the same user are serialized; messages
// from different users proceed concurrently.
type Pipeline struct {
	store      StateStore
	model      ConversationModel
	dispatcher *Dispatcher
	boss       BossIdentity
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline wires the processing pipeline. ttl <= 0 selects the default
// conversation expiry.
func NewPipeline(store StateStore, model ConversationModel, dispatcher *Dispatcher, boss BossIdentity, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Pipeline {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		model:      model,
		dispatcher: dispatcher,
		boss:       boss,
		ttl:        ttl,
		now:        now,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Process handles one inbound message and returns the reply text. It never
// returns an empty string: collaborator failures degrade to a fallback
// reply instead of silence.
func (p *Pipeline) Process(ctx context.Context, userID, usernameHint, text string) string {
	lock := p.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := p.now()
	state := p.loadState(ctx, userID, now)

	if p.boss.Matches(userID) {
		state.Role = visibility.RoleBoss
		state.Username = p.boss.Name
		state.Email = p.boss.Email
	} else if state.Username == "" && usernameHint != "" {
		state.Username = usernameHint
	}

	meetings := p.dispatcher.ListForContext(ctx, state.Viewer())
	contextTurn := dialogue.Turn{Role: dialogue.TurnSystem, Content: meetings.Detail}

	state.Append(dialogue.TurnUser, text)

	extracted := p.extract(ctx, contextTurn, state.Log)
	if state.Role != visibility.RoleBoss {
		if extracted.Username != "" {
			state.Username = extracted.Username
		}
		if extracted.Email != "" {
			state.Email = extracted.Email
		}
	}

	intents := extracted.Intents
	if len(intents) == 0 {
		intents = []dialogue.Intent{{Kind: dialogue.IntentNone}}
	}
	for _, intent := range intents {
		p.advance(ctx, &state, intent)
	}

	reply := p.generate(ctx, contextTurn, &state)
	state.Append(dialogue.TurnAssistant, reply)
	state.Greeted = true
	state.UpdatedAt = now

	if err := p.store.SaveState(ctx, state); err != nil {
		p.logger.Error("failed to save conversation state", "user_id", userID, "error", err)
	}
	return reply
}

// advance runs one intent through the state machine and records the
// outcome as a system turn for response generation.
func (p *Pipeline) advance(ctx context.Context, state *dialogue.State, intent dialogue.Intent) {
	switch dialogue.Decide(state, intent) {
	case dialogue.StepGreet:
		state.Append(dialogue.TurnSystem, "GREET the user, introduce yourself, and ask how you can help with scheduling.")
		// Greeting counts as done immediately so further intents in the same
		// message still act.
		state.Greeted = true
		if dialogue.ValidIntent(intent.Kind) {
			p.advance(ctx, state, intent)
		}
	case dialogue.StepAskInfo:
		missing := dialogue.MissingScheduleFields(state.PendingFields, state.Email)
		state.Append(dialogue.TurnSystem, "ASK the user for the missing details before scheduling: "+strings.Join(missing, ", "))
	case dialogue.StepAct:
		result := p.dispatcher.Dispatch(ctx, state.PendingIntent, state)
		state.Append(dialogue.TurnSystem, result.Detail)
		if result.Success {
			state.CompleteIntent()
		}
	case dialogue.StepFollowUp:
		state.Append(dialogue.TurnSystem, "No actionable request was recognized; answer conversationally and offer scheduling help.")
	}
}

func (p *Pipeline) loadState(ctx context.Context, userID string, now time.Time) dialogue.State {
	state, err := p.store.LoadState(ctx, userID)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return dialogue.NewState(userID, now)
	case err != nil:
		p.logger.Error("failed to load conversation state", "user_id", userID, "error", err)
		return dialogue.NewState(userID, now)
	case dialogue.Expired(state, now, p.ttl):
		p.logger.Info("conversation expired, starting over", "user_id", userID)
		return dialogue.NewState(userID, now)
	}
	return state
}

// extract runs intent extraction over the conversation so far. Any failure
// yields a zero result, which the state machine treats as a follow-up.
func (p *Pipeline) extract(ctx context.Context, contextTurn dialogue.Turn, log []dialogue.Turn) dialogue.ExtractedData {
	conversation := renderConversation(contextTurn, log)
	extracted, err := p.model.Extract(ctx, conversation)
	if err != nil {
		p.logger.Error("intent extraction failed", "error", err)
		return dialogue.ExtractedData{}
	}
	return extracted
}

func (p *Pipeline) generate(ctx context.Context, contextTurn dialogue.Turn, state *dialogue.State) string {
	log := append([]dialogue.Turn{contextTurn}, state.Log...)
	reply, err := p.model.Generate(ctx, log, state.Role)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			p.logger.Error("response generation failed", "error", err)
		}
		return fallbackReply
	}
	return reply
}

// userLock returns the mutex serializing one user's messages. Locks are
// never evicted, so the map grows with the number of distinct user ids seen
// over the process lifetime.
func (p *Pipeline) userLock(userID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[userID] = lock
	}
	return lock
}

func renderConversation(contextTurn dialogue.Turn, log []dialogue.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", contextTurn.Role, contextTurn.Content)
	for _, turn := range log {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}
