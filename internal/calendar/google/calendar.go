// Package google implements the calendar provider contract against the
// Google Calendar API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/example/calendar-secretary/internal/calendar"
)

// Client talks to a single Google calendar on behalf of the bot.
type Client struct {
	service    *gcal.Service
	calendarID string
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds an authenticated client for the given calendar. The token
// file must have been produced by the auth flow beforehand.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, tokenFile, calendarID string) (*Client, error) {
	config := OAuthConfig(clientID, clientSecret)

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Run the 'auth' command first", tokenFile, err)
	}

	httpClient := config.Client(ctx, token)
	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{service: service, calendarID: calendarID, logger: logger, now: time.Now}, nil
}

// CreateEvent inserts a new event with a Meet conference attached.
func (c *Client) CreateEvent(ctx context.Context, input calendar.CreateInput) (calendar.CreateResult, error) {
	attendees := make([]*gcal.EventAttendee, 0, len(input.Attendees))
	for _, email := range input.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	event := &gcal.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       &gcal.EventDateTime{DateTime: input.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: input.End.Format(time.RFC3339)},
		Attendees:   attendees,
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := c.service.Events.Insert(c.calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return calendar.CreateResult{}, fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.Info("event created", "id", created.Id, "summary", created.Summary)
	return calendar.CreateResult{
		ID:       created.Id,
		Status:   created.Status,
		MeetLink: created.HangoutLink,
	}, nil
}

// CancelEvent deletes the event and reports whether the provider accepted
// the deletion.
func (c *Client) CancelEvent(ctx context.Context, eventID string) (bool, error) {
	err := c.service.Events.Delete(c.calendarID, eventID).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("failed to cancel event %s: %w", eventID, err)
	}
	c.logger.Info("event cancelled", "id", eventID)
	return true, nil
}

// UpdateEvent applies a partial patch. Fields absent from the patch keep
// their server-side values.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, patch calendar.UpdatePatch) (calendar.UpdateResult, error) {
	event := &gcal.Event{}
	if patch.Title != nil {
		event.Summary = *patch.Title
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.Start != nil {
		event.Start = &gcal.EventDateTime{DateTime: patch.Start.Format(time.RFC3339)}
	}
	if patch.End != nil {
		event.End = &gcal.EventDateTime{DateTime: patch.End.Format(time.RFC3339)}
	}
	if patch.Attendees != nil {
		attendees := make([]*gcal.EventAttendee, 0, len(patch.Attendees))
		for _, email := range patch.Attendees {
			attendees = append(attendees, &gcal.EventAttendee{Email: email})
		}
		event.Attendees = attendees
	}

	updated, err := c.service.Events.Patch(c.calendarID, eventID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return calendar.UpdateResult{}, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	c.logger.Info("event updated", "id", eventID)
	return calendar.UpdateResult{Status: updated.Status}, nil
}

// ListEvents fetches events inside the query bounds ordered by start time.
func (c *Client) ListEvents(ctx context.Context, query calendar.ListQuery) ([]calendar.Event, error) {
	timeMin := query.TimeMin
	if !query.IncludePast {
		if now := c.now(); timeMin.Before(now) {
			timeMin = now
		}
	}

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	result, err := c.service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(query.TimeMax.Format(time.RFC3339)).
		MaxResults(maxResults).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]calendar.Event, 0, len(result.Items))
	for _, item := range result.Items {
		// All-day entries carry no dateTime and cannot conflict-check
		// against timed windows.
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		start, _ := time.Parse(time.RFC3339, item.Start.DateTime)
		end, _ := time.Parse(time.RFC3339, item.End.DateTime)

		var attendees []string
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}

		event := calendar.Event{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Start:       start,
			End:         end,
			Location:    item.Location,
			Attendees:   attendees,
			MeetLink:    item.HangoutLink,
		}
		if item.Organizer != nil {
			event.Organizer = item.Organizer.Email
		}
		events = append(events, event)
	}

	c.logger.Debug("events listed", "count", len(events), "calendar", c.calendarID)
	return events, nil
}

// OAuthConfig returns the OAuth2 configuration for the calendar scope. It is
// shared between the serving path and the interactive auth command.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     googleoauth.Endpoint,
	}
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken persists a token to the given path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}
