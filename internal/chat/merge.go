// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"maps"
	"sync"

	"github.com/jeranaias/panechat/internal/model"
)

// =============================================================================
// MERGE SELECTOR
// =============================================================================

// Selector merges stored messages with buffered stream text, memoizing the
// result. The renderer compares slices by identity to skip re-rendering, so
// unchanged inputs must yield the identical slice, not an equal copy.
type Selector struct {
	mu           sync.Mutex
	lastMessages []model.Message
	lastStreams  map[int64]string
	lastMerged   []model.Message
}

// NewSelector creates a merge selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Merge overlays buffered stream text onto stored messages. A message whose
// id has buffered text gets its content replaced by the accumulation; all
// others pass through untouched. With nothing buffered the input slice is
// returned as-is, same backing array.
func (s *Selector) Merge(messages []model.Message, streams map[int64]string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Every render reloads the conversation, so the slice is fresh each
	// call and identity can't key the memo. Compare by content.
	if s.lastMerged != nil && messagesEqual(messages, s.lastMessages) && maps.Equal(streams, s.lastStreams) {
		return s.lastMerged
	}

	merged := messages
	if len(streams) > 0 {
		merged = make([]model.Message, len(messages))
		for i, msg := range messages {
			if text, ok := streams[msg.ID]; ok {
				if body, isChat := msg.Body.(model.OpenAIBody); isChat {
					body.Content = text
					msg.Body = body
				}
			}
			merged[i] = msg
		}
	}

	s.lastMessages = messages
	s.lastStreams = maps.Clone(streams)
	s.lastMerged = merged
	return merged
}

// messagesEqual compares two transcripts by what rendering depends on: id,
// kind, and text. Stored rows only ever change through the terminal
// assistant-content write, which Text covers.
func messagesEqual(a, b []model.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Kind() != b[i].Kind() || a[i].Text() != b[i].Text() {
			return false
		}
	}
	return true
}
