// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panes

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/panechat/internal/logging"
)

// =============================================================================
// TYPES
// =============================================================================

// Pane is one viewport. Ids are unique and never reused; a closed pane's id
// is gone for good.
type Pane struct {
	ID             uuid.UUID
	ConversationID int64
}

// ReapFunc deletes a conversation if it has no messages. Called when
// navigation moves away from a conversation, so opened-but-never-used
// conversations don't pile up.
type ReapFunc func(conversationID int64) error

// Set holds the pane mapping and the active pane. Safe for concurrent use.
type Set struct {
	mu     sync.Mutex
	panes  map[uuid.UUID]*Pane
	order  []uuid.UUID // insertion order, drives left-to-right layout
	active uuid.UUID   // uuid.Nil when no pane is active
	reap   ReapFunc
	log    zerolog.Logger
}

// NewSet creates an empty pane set. reap may be nil to disable empty-
// conversation cleanup.
func NewSet(reap ReapFunc) *Set {
	if reap == nil {
		reap = func(int64) error { return nil }
	}
	return &Set{
		panes: make(map[uuid.UUID]*Pane),
		reap:  reap,
		log:   logging.For("panes"),
	}
}

// =============================================================================
// OPEN / CLOSE / ACTIVATE
// =============================================================================

// OpenConversation routes a conversation to a pane. In order:
//
//  1. A pane already shows it and no new pane was forced: focus that pane.
//  2. No new pane was forced and some pane is active: rebind the active
//     pane to this conversation.
//  3. Otherwise: create a fresh pane and make it active.
//
// Whenever focus leaves a different conversation, that conversation is
// reaped if empty. Returns the id of the pane now showing the conversation.
func (s *Set) OpenConversation(conversationID int64, openInNewPane bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.activeConversationLocked()

	if !openInNewPane {
		for _, id := range s.order {
			if s.panes[id].ConversationID == conversationID {
				s.active = id
				s.reapDeparted(previous, conversationID)
				return id
			}
		}
		if s.active != uuid.Nil {
			s.panes[s.active].ConversationID = conversationID
			s.reapDeparted(previous, conversationID)
			return s.active
		}
	}

	pane := &Pane{ID: uuid.New(), ConversationID: conversationID}
	s.panes[pane.ID] = pane
	s.order = append(s.order, pane.ID)
	s.active = pane.ID
	s.log.Debug().Str("pane", pane.ID.String()).Int64("conversation", conversationID).Msg("pane opened")
	return pane.ID
}

// ClosePane removes a pane. If it was active, activation falls to the first
// remaining pane in layout order, or to none. Unknown ids are a logged
// no-op: close actions can race conversation deletion.
func (s *Set) ClosePane(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePaneLocked(id)
}

// SetActive focuses a pane without touching conversation bindings. Unknown
// ids are a logged no-op.
func (s *Set) SetActive(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.panes[id]; !ok {
		s.log.Warn().Str("pane", id.String()).Msg("activate: unknown pane")
		return
	}
	previous := s.activeConversationLocked()
	s.active = id
	s.reapDeparted(previous, s.panes[id].ConversationID)
}

// CloseConversation closes every pane displaying the conversation. Run this
// before deleting the conversation so no pane is left pointing at a dead
// row.
func (s *Set) CloseConversation(conversationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range append([]uuid.UUID(nil), s.order...) {
		if s.panes[id].ConversationID == conversationID {
			s.closePaneLocked(id)
		}
	}
}

func (s *Set) closePaneLocked(id uuid.UUID) {
	if _, ok := s.panes[id]; !ok {
		s.log.Warn().Str("pane", id.String()).Msg("close: unknown pane")
		return
	}
	delete(s.panes, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = uuid.Nil
		if len(s.order) > 0 {
			s.active = s.order[0]
		}
	}
}

// =============================================================================
// READ SIDE
// =============================================================================

// Active returns the active pane, if any.
func (s *Set) Active() (Pane, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == uuid.Nil {
		return Pane{}, false
	}
	return *s.panes[s.active], true
}

// Panes returns the panes in layout order.
func (s *Set) Panes() []Pane {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pane, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.panes[id])
	}
	return out
}

// Len returns the pane count.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panes)
}

// activeConversationLocked returns the active pane's conversation id, or -1.
func (s *Set) activeConversationLocked() int64 {
	if s.active == uuid.Nil {
		return -1
	}
	return s.panes[s.active].ConversationID
}

// reapDeparted reaps the previously focused conversation when focus moved to
// a different one and no remaining pane still shows it.
func (s *Set) reapDeparted(previous, current int64) {
	if previous < 0 || previous == current {
		return
	}
	for _, p := range s.panes {
		if p.ConversationID == previous {
			return
		}
	}
	if err := s.reap(previous); err != nil {
		s.log.Warn().Err(err).Int64("conversation", previous).Msg("reap failed")
	}
}
