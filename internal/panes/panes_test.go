// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panes

import (
	"testing"

	"github.com/google/uuid"
)

// recordingReap captures reaped conversation ids.
type recordingReap struct {
	reaped []int64
}

func (r *recordingReap) reap(id int64) error {
	r.reaped = append(r.reaped, id)
	return nil
}

func TestOpenCreatesPaneWhenEmpty(t *testing.T) {
	s := NewSet(nil)

	id := s.OpenConversation(1, false)
	if s.Len() != 1 {
		t.Fatalf("pane count = %d", s.Len())
	}
	active, ok := s.Active()
	if !ok || active.ID != id || active.ConversationID != 1 {
		t.Errorf("active = %+v, %v", active, ok)
	}
}

func TestOpenReusesActivePane(t *testing.T) {
	s := NewSet(nil)

	first := s.OpenConversation(1, false)
	second := s.OpenConversation(2, false)

	if first != second {
		t.Error("open without force must reuse the active pane")
	}
	if s.Len() != 1 {
		t.Errorf("pane count = %d, want 1", s.Len())
	}
	active, _ := s.Active()
	if active.ConversationID != 2 {
		t.Errorf("active conversation = %d, want 2", active.ConversationID)
	}
}

func TestOpenFocusesExistingPane(t *testing.T) {
	s := NewSet(nil)

	p1 := s.OpenConversation(1, false)
	p2 := s.OpenConversation(2, true)
	if p1 == p2 {
		t.Fatal("forced open must create a new pane")
	}

	// Reopening conversation 1 focuses p1 instead of rebinding p2.
	got := s.OpenConversation(1, false)
	if got != p1 {
		t.Errorf("focused pane = %v, want %v", got, p1)
	}
	if s.Len() != 2 {
		t.Errorf("pane count = %d, want 2", s.Len())
	}
	if pns := s.Panes(); pns[1].ConversationID != 2 {
		t.Errorf("second pane rebound: %+v", pns)
	}
}

func TestOpenForceNewKeepsExisting(t *testing.T) {
	s := NewSet(nil)

	p1 := s.OpenConversation(1, false)
	p2 := s.OpenConversation(1, true)

	if p1 == p2 {
		t.Error("forced open must not reuse the pane")
	}
	if s.Len() != 2 {
		t.Errorf("pane count = %d, want 2", s.Len())
	}
	panes := s.Panes()
	if panes[0].ConversationID != 1 || panes[1].ConversationID != 1 {
		t.Errorf("panes = %+v", panes)
	}
	active, _ := s.Active()
	if active.ID != p2 {
		t.Error("new pane must become active")
	}
}

func TestReapOnDeparture(t *testing.T) {
	var r recordingReap
	s := NewSet(r.reap)

	s.OpenConversation(1, false)
	s.OpenConversation(2, false) // rebinds, conversation 1 departed

	if len(r.reaped) != 1 || r.reaped[0] != 1 {
		t.Errorf("reaped = %v, want [1]", r.reaped)
	}

	// Reopening the same conversation reaps nothing.
	s.OpenConversation(2, false)
	if len(r.reaped) != 1 {
		t.Errorf("reaped = %v after self-open", r.reaped)
	}
}

func TestNoReapWhileStillVisible(t *testing.T) {
	var r recordingReap
	s := NewSet(r.reap)

	s.OpenConversation(1, false)
	s.OpenConversation(1, true) // second pane, same conversation
	s.OpenConversation(2, false)

	// Conversation 1 left the active pane but the first pane still shows
	// it.
	if len(r.reaped) != 0 {
		t.Errorf("reaped = %v, want none", r.reaped)
	}
}

func TestClosePaneActivationFallback(t *testing.T) {
	s := NewSet(nil)

	p1 := s.OpenConversation(1, false)
	p2 := s.OpenConversation(2, true)
	p3 := s.OpenConversation(3, true)

	s.ClosePane(p3)
	active, ok := s.Active()
	if !ok || active.ID != p1 {
		t.Errorf("active = %+v, want first pane %v", active, p1)
	}

	s.ClosePane(p1)
	active, ok = s.Active()
	if !ok || active.ID != p2 {
		t.Errorf("active = %+v, want %v", active, p2)
	}

	s.ClosePane(p2)
	if _, ok := s.Active(); ok {
		t.Error("no pane left, none should be active")
	}
	if s.Len() != 0 {
		t.Errorf("pane count = %d", s.Len())
	}
}

func TestCloseInactiveKeepsActive(t *testing.T) {
	s := NewSet(nil)

	p1 := s.OpenConversation(1, false)
	p2 := s.OpenConversation(2, true)

	s.ClosePane(p1)
	active, ok := s.Active()
	if !ok || active.ID != p2 {
		t.Errorf("active = %+v, want %v", active, p2)
	}
}

func TestUnknownPaneIsNoOp(t *testing.T) {
	s := NewSet(nil)
	p1 := s.OpenConversation(1, false)

	s.ClosePane(uuid.New())
	s.SetActive(uuid.New())

	if s.Len() != 1 {
		t.Errorf("pane count = %d", s.Len())
	}
	active, ok := s.Active()
	if !ok || active.ID != p1 {
		t.Errorf("active = %+v", active)
	}
}

func TestCloseConversationClosesAllPanes(t *testing.T) {
	s := NewSet(nil)

	s.OpenConversation(1, false)
	s.OpenConversation(1, true)
	p3 := s.OpenConversation(2, true)

	s.CloseConversation(1)
	if s.Len() != 1 {
		t.Fatalf("pane count = %d, want 1", s.Len())
	}
	if panes := s.Panes(); panes[0].ID != p3 {
		t.Errorf("surviving pane = %+v", panes)
	}
}

func TestSetActiveReapsDeparted(t *testing.T) {
	var r recordingReap
	s := NewSet(r.reap)

	p1 := s.OpenConversation(1, false)
	s.OpenConversation(2, true)

	s.SetActive(p1)
	if len(r.reaped) != 0 {
		// Conversation 2 is still shown by its own pane.
		t.Errorf("reaped = %v, want none", r.reaped)
	}
}

// TestTwoPaneScenario walks the canonical flow: open A, open B in place,
// then fork A out to a second pane.
func TestTwoPaneScenario(t *testing.T) {
	var r recordingReap
	s := NewSet(r.reap)

	p1 := s.OpenConversation(1, false)
	if s.Len() != 1 {
		t.Fatalf("pane count = %d", s.Len())
	}

	// B takes over the active pane; A (empty) is reaped.
	got := s.OpenConversation(2, false)
	if got != p1 || s.Len() != 1 {
		t.Fatalf("open B: pane = %v (want %v), count = %d", got, p1, s.Len())
	}
	if len(r.reaped) != 1 || r.reaped[0] != 1 {
		t.Errorf("reaped = %v, want [1]", r.reaped)
	}

	// A forced into a new pane; P1 keeps B.
	p2 := s.OpenConversation(1, true)
	if p2 == p1 {
		t.Fatal("forced open reused the pane")
	}
	if s.Len() != 2 {
		t.Fatalf("pane count = %d, want 2", s.Len())
	}
	active, _ := s.Active()
	if active.ID != p2 || active.ConversationID != 1 {
		t.Errorf("active = %+v", active)
	}
	if panes := s.Panes(); panes[0].ConversationID != 2 {
		t.Errorf("first pane = %+v, want conversation 2", panes[0])
	}
}

func TestSingleActiveInvariant(t *testing.T) {
	s := NewSet(nil)

	ids := []uuid.UUID{
		s.OpenConversation(1, false),
		s.OpenConversation(2, true),
		s.OpenConversation(3, true),
	}
	s.SetActive(ids[0])
	s.ClosePane(ids[0])
	s.OpenConversation(4, false)

	active, ok := s.Active()
	if !ok {
		t.Fatal("expected an active pane")
	}
	found := false
	for _, p := range s.Panes() {
		if p.ID == active.ID {
			found = true
		}
	}
	if !found {
		t.Error("active pane missing from the mapping")
	}
}
