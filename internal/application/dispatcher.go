package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/calendar-secretary/internal/calendar"
	"github.com/example/calendar-secretary/internal/dialogue"
	"github.com/example/calendar-secretary/internal/scheduler"
	"github.com/example/calendar-secretary/internal/visibility"
)

// Dispatcher executes resolved intents against the calendar provider.
// Every method returns an ActionResult and swallows collaborator failures
// into a safe failure detail; nothing here retries, because a retried
// mutation could double-book the calendar.
type Dispatcher struct {
	calendar CalendarProvider
	policy   scheduler.BlockedTimePolicy
	boss     BossIdentity
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewDispatcher wires dependencies for intent execution. now may be nil for
// the wall clock.
func NewDispatcher(provider CalendarProvider, policy scheduler.BlockedTimePolicy, boss BossIdentity, loc *time.Location, now func() time.Time, logger *slog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		calendar: provider,
		policy:   policy,
		boss:     boss,
		location: loc,
		now:      now,
		logger:   logger,
	}
}

// Dispatch routes a resolved intent to its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, kind dialogue.IntentKind, state *dialogue.State) ActionResult {
	switch kind {
	case dialogue.IntentSchedule:
		return d.Schedule(ctx, state.PendingFields, state.Email, state.Username)
	case dialogue.IntentCancel:
		return d.Cancel(ctx, state.PendingFields, state.Viewer())
	case dialogue.IntentUpdate:
		return d.Update(ctx, state.PendingFields, state.PendingNewFields, state.Viewer())
	case dialogue.IntentList:
		return d.List(ctx, state.PendingFields, state.Viewer())
	}
	return ActionResult{Success: false, Detail: "UNKNOWN INTENT"}
}

// Schedule books a meeting once availability allows it. On a non-available
// verdict the failure detail carries the reason and, where remediation
// makes sense, alternative slot suggestions.
func (d *Dispatcher) Schedule(ctx context.Context, fields dialogue.EventFields, requesterEmail, requesterName string) ActionResult {
	if requesterEmail == "" {
		// The invitee list must include the requester; without an address
		// there is nobody to invite.
		return ActionResult{Success: false, Detail: "FAIL:SCHEDULE: email address is needed to schedule a meeting"}
	}

	window := d.resolveWindow(fields.StartTime, fields.EndTime)

	busy, err := d.busyIntervals(ctx, window)
	if err != nil {
		return d.collaboratorFailure("SCHEDULE", err)
	}

	eventName := fields.EventName.Or(fmt.Sprintf("%s <> %s", requesterName, d.boss.Name))
	description := fields.Description.Or("Event scheduled by the calendar secretary bot")
	invitees := appendMissing(fields.InvitedPeople, requesterEmail)

	verdict := scheduler.Classify(window, d.policy, busy, "")
	if verdict != scheduler.VerdictAvailable {
		detail := fmt.Sprintf("FAIL:SCHEDULE: The meeting '%s' could not be scheduled from %s to %s. Reason: %s",
			eventName, fields.StartTime.Or("unknown"), fields.EndTime.Or("unknown"), verdictReason(verdict))
		if remediable(verdict) {
			detail = d.appendSuggestions(ctx, detail)
		}
		return ActionResult{Success: false, Detail: detail}
	}

	created, err := d.calendar.CreateEvent(ctx, calendar.CreateInput{
		Summary:     eventName,
		Start:       window.Start,
		End:         window.End,
		Description: description,
		Location:    fields.Location.Or(""),
		Attendees:   invitees,
	})
	if err != nil {
		return d.collaboratorFailure("SCHEDULE", err)
	}
	if created.Status != calendar.StatusConfirmed {
		return ActionResult{Success: false, Detail: fmt.Sprintf("FAIL:SCHEDULE: the calendar reported status %q for the new meeting", created.Status)}
	}

	detail := fmt.Sprintf("SUCCESS:SCHEDULE: The meeting '%s' scheduled from %s to %s. Participants: %s. Description: %s.",
		eventName,
		window.Start.In(d.location).Format(time.RFC3339),
		window.End.In(d.location).Format(time.RFC3339),
		strings.Join(invitees, ", "),
		description,
	)
	if created.MeetLink != "" {
		detail += " Meeting link: " + created.MeetLink
	}
	return ActionResult{Success: true, Detail: detail}
}

// Cancel removes an identified meeting, or discloses the requester's own
// upcoming meetings so the next turn can identify one. The disclosure path
// reports success=false: the intent stays pending until an event id
// resolves.
func (d *Dispatcher) Cancel(ctx context.Context, fields dialogue.EventFields, viewer visibility.Viewer) ActionResult {
	eventID, ok := fields.EventID.Get()
	if !ok {
		return d.pendingDisclosure(ctx, "CANCEL", viewer)
	}

	accepted, err := d.calendar.CancelEvent(ctx, eventID)
	if err != nil {
		return d.collaboratorFailure("CANCEL", err)
	}
	if !accepted {
		return ActionResult{Success: false, Detail: "FAIL:CANCEL: the calendar refused to cancel the meeting"}
	}
	return ActionResult{Success: true, Detail: "SUCCESS:CANCEL: The meeting has been successfully canceled."}
}

// Update applies a partial change to an identified meeting, re-checking
// availability for any changed time window with the event itself excluded
// from conflicts. Keep-current sentinels are never forwarded.
func (d *Dispatcher) Update(ctx context.Context, fields, newFields dialogue.EventFields, viewer visibility.Viewer) ActionResult {
	eventID, ok := fields.EventID.Get()
	if !ok {
		return d.pendingDisclosure(ctx, "UPDATE", viewer)
	}

	patch := d.buildPatch(fields, newFields, viewer.Email)
	if patch.Empty() {
		return ActionResult{Success: false, Detail: "FAIL:UPDATE: No new value to update in meeting"}
	}

	if patch.Start != nil || patch.End != nil {
		window := d.effectiveWindow(fields, patch)
		busy, err := d.busyIntervals(ctx, window)
		if err != nil {
			return d.collaboratorFailure("UPDATE", err)
		}
		verdict := scheduler.Classify(window, d.policy, busy, eventID)
		if verdict != scheduler.VerdictAvailable && verdict != scheduler.VerdictSameEvent {
			detail := fmt.Sprintf("FAIL:UPDATE: The meeting could not be moved. Reason: %s", verdictReason(verdict))
			if remediable(verdict) {
				detail = d.appendSuggestions(ctx, detail)
			}
			return ActionResult{Success: false, Detail: detail}
		}
	}

	updated, err := d.calendar.UpdateEvent(ctx, eventID, patch)
	if err != nil {
		return d.collaboratorFailure("UPDATE", err)
	}
	if updated.Status != calendar.StatusConfirmed {
		return ActionResult{Success: false, Detail: fmt.Sprintf("FAIL:UPDATE: the calendar reported status %q for the update", updated.Status)}
	}

	return ActionResult{Success: true, Detail: fmt.Sprintf("SUCCESS:UPDATE: The meeting '%s' has been updated successfully. %s",
		fields.EventName.Or("unknown"), describePatch(patch, d.location))}
}

// List renders the meetings the viewer may see over the requested window,
// defaulting to the next seven days.
func (d *Dispatcher) List(ctx context.Context, fields dialogue.EventFields, viewer visibility.Viewer) ActionResult {
	timeMin := d.now()
	timeMax := timeMin.Add(defaultListWindow)
	if value, ok := fields.StartTime.Get(); ok {
		if t, err := parseExtractedTime(value, d.location); err == nil {
			timeMin = t
		}
	}
	if value, ok := fields.EndTime.Get(); ok {
		if t, err := parseExtractedTime(value, d.location); err == nil {
			timeMax = t
		}
	}

	events, err := d.calendar.ListEvents(ctx, calendar.ListQuery{
		TimeMin:     timeMin,
		TimeMax:     timeMax,
		MaxResults:  100,
		IncludePast: true,
	})
	if err != nil {
		return d.collaboratorFailure("LIST", err)
	}

	visible := visibility.Filter(events, viewer)
	return ActionResult{Success: true, Detail: renderEvents(visible, d.location)}
}

// ListForContext fetches the viewer's meetings over a broad window for the
// pre-turn conversation context.
func (d *Dispatcher) ListForContext(ctx context.Context, viewer visibility.Viewer) ActionResult {
	now := d.now()
	events, err := d.calendar.ListEvents(ctx, calendar.ListQuery{
		TimeMin:     now.Add(-contextLookBack),
		TimeMax:     now.Add(contextLookAhead),
		MaxResults:  100,
		IncludePast: true,
	})
	if err != nil {
		return d.collaboratorFailure("LIST", err)
	}
	return ActionResult{Success: true, Detail: renderEvents(visibility.Filter(events, viewer), d.location)}
}

// pendingDisclosure lists the viewer's own upcoming meetings inside a
// failure result, so the next turn's extraction can resolve an event id
// against it.
func (d *Dispatcher) pendingDisclosure(ctx context.Context, action string, viewer visibility.Viewer) ActionResult {
	listing := d.ListForContext(ctx, viewer)
	detail := fmt.Sprintf("FAIL:%s: the meeting was not identified yet; ask the user to pick one of their meetings.", action)
	if listing.Success {
		detail += "\n" + listing.Detail
	}
	return ActionResult{Success: false, Detail: detail}
}

// resolveWindow parses both endpoints, degrading unparseable or unset values
// to the zero time so classification reports them as missing.
func (d *Dispatcher) resolveWindow(start, end dialogue.Field) scheduler.TimeInterval {
	return scheduler.TimeInterval{
		Start: d.resolveTime(start),
		End:   d.resolveTime(end),
	}
}

func (d *Dispatcher) resolveTime(field dialogue.Field) time.Time {
	value, ok := field.Get()
	if !ok {
		return time.Time{}
	}
	t, err := parseExtractedTime(value, d.location)
	if err != nil {
		d.logger.Warn("unparseable extracted time", "value", value)
		return time.Time{}
	}
	return t
}

// busyIntervals queries the provider for events overlapping the window.
// An unresolved or reverted window skips the query: classification will
// fail it before busy events matter.
func (d *Dispatcher) busyIntervals(ctx context.Context, window scheduler.TimeInterval) ([]scheduler.BusyInterval, error) {
	if window.Incomplete() || window.Reverted() {
		return nil, nil
	}
	events, err := d.calendar.ListEvents(ctx, calendar.ListQuery{
		TimeMin:     window.Start,
		TimeMax:     window.End,
		MaxResults:  100,
		IncludePast: true,
	})
	if err != nil {
		return nil, err
	}
	busy := make([]scheduler.BusyInterval, 0, len(events))
	for _, event := range events {
		busy = append(busy, scheduler.BusyInterval{
			ID:           event.ID,
			TimeInterval: scheduler.TimeInterval{Start: event.Start, End: event.End},
		})
	}
	return busy, nil
}

// appendSuggestions attaches alternative slots over the coming week to a
// failure detail.
func (d *Dispatcher) appendSuggestions(ctx context.Context, detail string) string {
	now := d.now().In(d.location)
	searchStart := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, d.location)
	if searchStart.Before(now) {
		searchStart = now
	}
	search := scheduler.TimeInterval{Start: searchStart, End: searchStart.Add(suggestionSearchSpan)}

	busy, err := d.busyIntervals(ctx, search)
	if err != nil {
		d.logger.Warn("failed to fetch busy intervals for suggestions", "error", err)
		return detail
	}
	slots, err := scheduler.Suggest(search, busy, d.policy, scheduler.DefaultSlotDuration)
	if err != nil {
		// ErrNoSlots: nothing to offer, leave the detail as is.
		return detail
	}
	return detail + "\n" + renderSlots(slots, d.location)
}

// buildPatch converts the new-value half into a partial patch. Only
// concrete values are forwarded; unset and keep-current fields stay out of
// the patch entirely.
func (d *Dispatcher) buildPatch(fields, newFields dialogue.EventFields, requesterEmail string) calendar.UpdatePatch {
	var patch calendar.UpdatePatch
	if v, ok := newFields.EventName.Get(); ok {
		patch.Title = &v
	}
	if v, ok := newFields.Description.Get(); ok {
		patch.Description = &v
	}
	if v, ok := newFields.Location.Get(); ok {
		patch.Location = &v
	}
	if t := d.resolveTime(newFields.StartTime); !t.IsZero() {
		patch.Start = &t
	}
	if t := d.resolveTime(newFields.EndTime); !t.IsZero() {
		patch.End = &t
	}
	if len(newFields.InvitedPeople) > 0 && !equalStrings(newFields.InvitedPeople, fields.InvitedPeople) {
		patch.Attendees = appendMissing(newFields.InvitedPeople, requesterEmail)
	}
	return patch
}

// effectiveWindow combines unchanged current endpoints with patched ones.
func (d *Dispatcher) effectiveWindow(fields dialogue.EventFields, patch calendar.UpdatePatch) scheduler.TimeInterval {
	window := d.resolveWindow(fields.StartTime, fields.EndTime)
	if patch.Start != nil {
		window.Start = *patch.Start
	}
	if patch.End != nil {
		window.End = *patch.End
	}
	return window
}

func (d *Dispatcher) collaboratorFailure(action string, err error) ActionResult {
	d.logger.Error("collaborator call failed", "action", action, "error", err)
	return ActionResult{
		Success: false,
		Detail:  fmt.Sprintf("FAIL:%s: a technical error occurred while contacting the calendar; ask the user to try again shortly", action),
	}
}

func describePatch(patch calendar.UpdatePatch, loc *time.Location) string {
	var parts []string
	if patch.Title != nil {
		parts = append(parts, "Title: "+*patch.Title)
	}
	if patch.Start != nil {
		parts = append(parts, "Start: "+patch.Start.In(loc).Format(time.RFC3339))
	}
	if patch.End != nil {
		parts = append(parts, "End: "+patch.End.In(loc).Format(time.RFC3339))
	}
	if patch.Description != nil {
		parts = append(parts, "Description: "+*patch.Description)
	}
	if patch.Location != nil {
		parts = append(parts, "Location: "+*patch.Location)
	}
	if patch.Attendees != nil {
		parts = append(parts, "Participants: "+strings.Join(patch.Attendees, ", "))
	}
	return "New details: " + strings.Join(parts, ", ")
}

func remediable(verdict scheduler.Verdict) bool {
	switch verdict {
	case scheduler.VerdictBlockedRest, scheduler.VerdictAlreadyBusy, scheduler.VerdictTimeMissing:
		return true
	}
	return false
}

func appendMissing(list []string, value string) []string {
	for _, item := range list {
		if item == value {
			return list
		}
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, value)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
