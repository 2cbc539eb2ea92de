package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestSuggestSkipsBusyAndBlockedSlots(t *testing.T) {
	t.Parallel()

	policy := DefaultBlockedTimePolicy(time.UTC)
	busy := []BusyInterval{
		{ID: "evt-1", TimeInterval: window(2, 9, 10)},
		{ID: "evt-2", TimeInterval: window(2, 13, 14)},
	}

	// Monday 08:00 to 16:00 with two busy hours.
	search := window(2, 8, 16)
	slots, err := Suggest(search, busy, policy, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []TimeInterval{
		window(2, 8, 9),
		window(2, 10, 11),
		window(2, 11, 12),
		window(2, 12, 13),
		window(2, 14, 15),
		window(2, 15, 16),
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i, slot := range slots {
		if !slot.Start.Equal(want[i].Start) || !slot.End.Equal(want[i].End) {
			t.Fatalf("slot %d: expected %v, got %v", i, want[i], slot)
		}
	}

	for _, slot := range slots {
		if v := Classify(slot, policy, busy, ""); v != VerdictAvailable {
			t.Fatalf("suggested slot %v classifies as %q", slot, v)
		}
	}
}

func TestSuggestCascadesFromSearchStart(t *testing.T) {
	t.Parallel()

	policy := BlockedTimePolicy{Location: time.UTC}
	search := TimeInterval{Start: at(2, 8, 30), End: at(2, 11, 0)}

	slots, err := Suggest(search, nil, policy, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Slots step from 08:30, never snapping to the clock hour, and the final
	// partial slot 10:30-11:30 is dropped because it exceeds the window.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(slots), slots)
	}
	if !slots[0].Start.Equal(at(2, 8, 30)) || !slots[1].Start.Equal(at(2, 9, 30)) {
		t.Fatalf("slots do not cascade from the search start: %v", slots)
	}
}

func TestSuggestReportsNoSlots(t *testing.T) {
	t.Parallel()

	policy := DefaultBlockedTimePolicy(time.UTC)

	t.Run("fully blocked window", func(t *testing.T) {
		// Saturday is blocked entirely.
		_, err := Suggest(window(7, 8, 18), nil, policy, time.Hour)
		if !errors.Is(err, ErrNoSlots) {
			t.Fatalf("expected ErrNoSlots, got %v", err)
		}
	})

	t.Run("window shorter than slot", func(t *testing.T) {
		_, err := Suggest(window(2, 10, 11), nil, policy, 2*time.Hour)
		if !errors.Is(err, ErrNoSlots) {
			t.Fatalf("expected ErrNoSlots, got %v", err)
		}
	})

	t.Run("unresolved window", func(t *testing.T) {
		_, err := Suggest(TimeInterval{}, nil, policy, time.Hour)
		if !errors.Is(err, ErrNoSlots) {
			t.Fatalf("expected ErrNoSlots, got %v", err)
		}
	})
}
