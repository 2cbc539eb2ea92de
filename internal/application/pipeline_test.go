package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/calendar-secretary/internal/calendar"
	"github.com/example/calendar-secretary/internal/dialogue"
	"github.com/example/calendar-secretary/internal/persistence"
	"github.com/example/calendar-secretary/internal/scheduler"
	"github.com/example/calendar-secretary/internal/testfixtures"
	"github.com/example/calendar-secretary/internal/visibility"
)

type stubStore struct {
	states  map[string]dialogue.State
	loadErr error
	saveErr error
}

func newStubStore() *stubStore {
	return &stubStore{states: make(map[string]dialogue.State)}
}

func (s *stubStore) LoadState(_ context.Context, userID string) (dialogue.State, error) {
	if s.loadErr != nil {
		return dialogue.State{}, s.loadErr
	}
	state, ok := s.states[userID]
	if !ok {
		return dialogue.State{}, persistence.ErrNotFound
	}
	return state, nil
}

func (s *stubStore) SaveState(_ context.Context, state dialogue.State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.states[state.UserID] = state
	return nil
}

type stubModel struct {
	extracted   dialogue.ExtractedData
	extractErr  error
	reply       string
	generateErr error

	generateLogs [][]dialogue.Turn
}

func (m *stubModel) Extract(_ context.Context, _ string) (dialogue.ExtractedData, error) {
	if m.extractErr != nil {
		return dialogue.ExtractedData{}, m.extractErr
	}
	return m.extracted, nil
}

func (m *stubModel) Generate(_ context.Context, log []dialogue.Turn, _ visibility.Role) (string, error) {
	m.generateLogs = append(m.generateLogs, log)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.reply, nil
}

func newTestPipeline(store StateStore, model ConversationModel, provider CalendarProvider) *Pipeline {
	boss := BossIdentity{Name: "Alex Boss", Email: "boss@example.com", ExternalIDs: []string{"wa:boss"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testfixtures.NewClock(fixedNow)
	dispatcher := NewDispatcher(provider, scheduler.DefaultBlockedTimePolicy(time.UTC), boss, time.UTC, clock.NowFunc(), logger)
	return NewPipeline(store, model, dispatcher, boss, 0, clock.NowFunc(), logger)
}

func greetedState(userID string) dialogue.State {
	state := dialogue.NewState(userID, fixedNow.Add(-time.Hour))
	state.Greeted = true
	state.Username = "Sam"
	state.Email = "sam@example.com"
	return state
}

func TestProcessGreetsOnFirstContact(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	model := &stubModel{reply: "Hello! I manage Alex Boss' calendar. How can I help?"}
	p := newTestPipeline(store, model, &stubCalendar{})

	reply := p.Process(context.Background(), "wa:sam", "Sam", "hi there")
	if reply != model.reply {
		t.Fatalf("reply = %q, want %q", reply, model.reply)
	}

	saved := store.states["wa:sam"]
	if !saved.Greeted {
		t.Error("state not marked greeted")
	}
	if !containsTurn(saved.Log, dialogue.TurnSystem, "GREET") {
		t.Errorf("log = %v, want greet instruction", saved.Log)
	}
	if !containsTurn(saved.Log, dialogue.TurnAssistant, model.reply) {
		t.Errorf("log = %v, want assistant reply recorded", saved.Log)
	}
}

func TestProcessSchedulesCompleteRequest(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.states["wa:sam"] = greetedState("wa:sam")

	model := &stubModel{
		reply: "Booked! See you Tuesday at 10.",
		extracted: dialogue.ExtractedData{
			Username: "Sam",
			Email:    "sam@example.com",
			Intents: []dialogue.Intent{{
				Kind: dialogue.IntentSchedule,
				Fields: dialogue.EventFields{
					EventName:     dialogue.Value("Design review"),
					StartTime:     dialogue.Value("2025-06-03T10:00:00Z"),
					EndTime:       dialogue.Value("2025-06-03T11:00:00Z"),
					InvitedPeople: []string{"boss@example.com"},
				},
			}},
		},
	}
	provider := &stubCalendar{}
	p := newTestPipeline(store, model, provider)

	reply := p.Process(context.Background(), "wa:sam", "Sam", "book a design review tomorrow 10 to 11")
	if reply != model.reply {
		t.Fatalf("reply = %q, want %q", reply, model.reply)
	}
	if len(provider.created) != 1 {
		t.Fatalf("created %d events, want 1", len(provider.created))
	}

	saved := store.states["wa:sam"]
	if saved.PendingIntent != dialogue.IntentNone {
		t.Errorf("PendingIntent = %q, want cleared after success", saved.PendingIntent)
	}
	if !containsTurn(saved.Log, dialogue.TurnSystem, "SUCCESS:SCHEDULE") {
		t.Errorf("log = %v, want schedule success recorded", saved.Log)
	}
}

func TestProcessAsksForMissingFields(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	state := greetedState("wa:sam")
	state.Email = ""
	store.states["wa:sam"] = state

	model := &stubModel{
		reply: "What time works for you, and what is your email?",
		extracted: dialogue.ExtractedData{
			Intents: []dialogue.Intent{{
				Kind: dialogue.IntentSchedule,
				Fields: dialogue.EventFields{
					EventName: dialogue.Value("Catch up"),
				},
			}},
		},
	}
	provider := &stubCalendar{}
	p := newTestPipeline(store, model, provider)

	p.Process(context.Background(), "wa:sam", "Sam", "I want to meet Alex")

	saved := store.states["wa:sam"]
	if saved.PendingIntent != dialogue.IntentSchedule {
		t.Errorf("PendingIntent = %q, want schedule retained", saved.PendingIntent)
	}
	if !containsTurn(saved.Log, dialogue.TurnSystem, "start_time") {
		t.Errorf("log = %v, want missing fields named", saved.Log)
	}
	if len(provider.created) != 0 {
		t.Errorf("created %d events, want none before fields complete", len(provider.created))
	}
}

func TestProcessAccumulatesFieldsAcrossTurns(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.states["wa:sam"] = greetedState("wa:sam")
	provider := &stubCalendar{}

	first := &stubModel{
		reply: "When would you like to meet?",
		extracted: dialogue.ExtractedData{Intents: []dialogue.Intent{{
			Kind:   dialogue.IntentSchedule,
			Fields: dialogue.EventFields{EventName: dialogue.Value("Roadmap chat"), InvitedPeople: []string{"boss@example.com"}},
		}}},
	}
	p := newTestPipeline(store, first, provider)
	p.Process(context.Background(), "wa:sam", "Sam", "set up a roadmap chat with Alex")

	second := &stubModel{
		reply: "Done, booked for Tuesday.",
		extracted: dialogue.ExtractedData{Intents: []dialogue.Intent{{
			Kind: dialogue.IntentSchedule,
			Fields: dialogue.EventFields{
				StartTime: dialogue.Value("2025-06-03T10:00:00Z"),
				EndTime:   dialogue.Value("2025-06-03T11:00:00Z"),
			},
		}}},
	}
	p2 := newTestPipeline(store, second, provider)
	p2.Process(context.Background(), "wa:sam", "Sam", "tomorrow 10 to 11")

	if len(provider.created) != 1 {
		t.Fatalf("created %d events, want 1 after fields completed", len(provider.created))
	}
	if got, want := provider.created[0].Summary, "Roadmap chat"; got != want {
		t.Errorf("Summary = %q, want the name from the earlier turn", got)
	}
}

func TestProcessMapsBossIdentity(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	model := &stubModel{
		reply: "Welcome back.",
		extracted: dialogue.ExtractedData{
			Username: "Impostor",
			Email:    "impostor@example.com",
		},
	}
	p := newTestPipeline(store, model, &stubCalendar{})

	p.Process(context.Background(), "wa:boss", "", "what's on my calendar?")

	saved := store.states["wa:boss"]
	if saved.Role != visibility.RoleBoss {
		t.Errorf("Role = %q, want boss", saved.Role)
	}
	if saved.Email != "boss@example.com" {
		t.Errorf("Email = %q, extraction must not override the boss identity", saved.Email)
	}
	if saved.Username != "Alex Boss" {
		t.Errorf("Username = %q, want pinned boss name", saved.Username)
	}
}

func TestProcessRestartsExpiredConversation(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	stale := greetedState("wa:sam")
	stale.UpdatedAt = fixedNow.Add(-25 * time.Hour)
	stale.PendingIntent = dialogue.IntentSchedule
	store.states["wa:sam"] = stale

	model := &stubModel{reply: "Hello again!"}
	p := newTestPipeline(store, model, &stubCalendar{})

	p.Process(context.Background(), "wa:sam", "Sam", "hi")

	saved := store.states["wa:sam"]
	if saved.PendingIntent != dialogue.IntentNone {
		t.Errorf("PendingIntent = %q, want fresh state after expiry", saved.PendingIntent)
	}
	if !containsTurn(saved.Log, dialogue.TurnSystem, "GREET") {
		t.Errorf("log = %v, expired conversation must be greeted again", saved.Log)
	}
}

func TestProcessFallsBackWhenExtractionFails(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.states["wa:sam"] = greetedState("wa:sam")
	model := &stubModel{reply: "Could you rephrase that?", extractErr: errors.New("model down")}
	p := newTestPipeline(store, model, &stubCalendar{})

	reply := p.Process(context.Background(), "wa:sam", "Sam", "asdf")
	if reply == "" {
		t.Fatal("Process() returned an empty reply")
	}
	saved := store.states["wa:sam"]
	if !containsTurn(saved.Log, dialogue.TurnSystem, "No actionable request") {
		t.Errorf("log = %v, want follow-up note", saved.Log)
	}
}

func TestProcessFallsBackWhenGenerationFails(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.states["wa:sam"] = greetedState("wa:sam")
	model := &stubModel{generateErr: errors.New("model down")}
	p := newTestPipeline(store, model, &stubCalendar{})

	reply := p.Process(context.Background(), "wa:sam", "Sam", "hi")
	if reply != fallbackReply {
		t.Fatalf("reply = %q, want fallback", reply)
	}
	if got := store.states["wa:sam"]; !containsTurn(got.Log, dialogue.TurnAssistant, fallbackReply) {
		t.Errorf("log = %v, want fallback recorded", got.Log)
	}
}

func TestProcessIncludesMeetingContextForGeneration(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.states["wa:sam"] = greetedState("wa:sam")
	provider := &stubCalendar{events: []calendar.Event{{
		ID:        "evt-1",
		Title:     "Sync",
		Start:     fixedNow.Add(2 * time.Hour),
		End:       fixedNow.Add(3 * time.Hour),
		Attendees: []string{"sam@example.com"},
	}}}
	model := &stubModel{reply: "You have one meeting coming up."}
	p := newTestPipeline(store, model, provider)

	p.Process(context.Background(), "wa:sam", "Sam", "what do I have?")

	if len(model.generateLogs) != 1 {
		t.Fatalf("Generate called %d times, want 1", len(model.generateLogs))
	}
	log := model.generateLogs[0]
	if len(log) == 0 || log[0].Role != dialogue.TurnSystem || !strings.Contains(log[0].Content, "MEETINGS OF THE USER") {
		t.Errorf("generation log = %v, want meeting context as leading system turn", log)
	}
}

func containsTurn(log []dialogue.Turn, role, fragment string) bool {
	for _, turn := range log {
		if turn.Role == role && strings.Contains(turn.Content, fragment) {
			return true
		}
	}
	return false
}
