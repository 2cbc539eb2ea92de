package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/example/calendar-secretary/internal/dialogue"
	"github.com/example/calendar-secretary/internal/visibility"
)

const (
	extractTemperature  = 0.1
	generateTemperature = 0.7
)

// Assistant combines the chat client with the prompt set to provide the two
// conversational capabilities the pipeline consumes: structured extraction
// and response generation.
type Assistant struct {
	client  *Client
	prompts PromptSet
	now     func() time.Time
}

// NewAssistant wires an assistant. now may be nil for the wall clock.
func NewAssistant(client *Client, prompts PromptSet, now func() time.Time) *Assistant {
	if now == nil {
		now = time.Now
	}
	return &Assistant{client: client, prompts: prompts, now: now}
}

// Extract runs the extraction prompt over the conversation transcript.
// Transport failures surface as errors; malformed model output degrades to
// a fully defaulted ExtractedData, never a partial structure.
func (a *Assistant) Extract(ctx context.Context, conversation string) (dialogue.ExtractedData, error) {
	messages := []Message{
		{Role: "system", Content: a.prompts.ExtractBase},
		{Role: "system", Content: timeContext(a.now())},
		{Role: "user", Content: conversation},
	}

	raw, err := a.client.ChatCompletion(ctx, messages, extractTemperature)
	if err != nil {
		return dialogue.ExtractedData{}, err
	}
	return DecodeExtraction(raw), nil
}

// Generate produces the outbound reply from the conversation log, using the
// prompt profile matching the requester's role.
func (a *Assistant) Generate(ctx context.Context, log []dialogue.Turn, role visibility.Role) (string, error) {
	profile := a.prompts.OtherProfile
	if role == visibility.RoleBoss {
		profile = a.prompts.BossProfile
	}

	messages := []Message{
		{Role: "system", Content: a.prompts.Definition},
		{Role: "system", Content: timeContext(a.now())},
		{Role: "system", Content: a.prompts.GenerateBase},
		{Role: "system", Content: profile},
	}
	for _, turn := range log {
		role := turn.Role
		if role != "user" && role != "assistant" && role != "system" {
			role = "user"
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}

	reply, err := a.client.ChatCompletion(ctx, messages, generateTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// DecodeExtraction parses the raw model output into ExtractedData. Any
// parse failure yields the zero value; individual malformed fields default
// via the Field union. Code fences around the JSON are tolerated.
func DecodeExtraction(raw string) dialogue.ExtractedData {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var data dialogue.ExtractedData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return dialogue.ExtractedData{}
	}

	if !looksLikeEmail(data.Email) {
		data.Email = ""
	}
	if data.Username == sentinelUnknownName {
		data.Username = ""
	}
	for i := range data.Intents {
		kind := dialogue.IntentKind(strings.ToLower(string(data.Intents[i].Kind)))
		if !dialogue.ValidIntent(kind) {
			kind = dialogue.IntentNone
		}
		data.Intents[i].Kind = kind
	}
	return data
}

const sentinelUnknownName = "unknown"

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".")
}
