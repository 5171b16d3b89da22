// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
)

// =============================================================================
// STREAM BUFFER
// =============================================================================

// StreamBuffer accumulates in-flight response text per conversation and
// message. Sends for different conversations stream concurrently, so all
// access is mutex-guarded.
type StreamBuffer struct {
	mu      sync.RWMutex
	streams map[int64]map[int64]*strings.Builder
}

// NewStreamBuffer creates an empty buffer.
func NewStreamBuffer() *StreamBuffer {
	return &StreamBuffer{streams: make(map[int64]map[int64]*strings.Builder)}
}

// Append adds a delta to a message's accumulated text.
func (b *StreamBuffer) Append(conversationID, messageID int64, delta string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conv := b.streams[conversationID]
	if conv == nil {
		conv = make(map[int64]*strings.Builder)
		b.streams[conversationID] = conv
	}
	sb := conv[messageID]
	if sb == nil {
		sb = &strings.Builder{}
		conv[messageID] = sb
	}
	sb.WriteString(delta)
}

// Get returns the accumulated text for one message.
func (b *StreamBuffer) Get(conversationID, messageID int64) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sb := b.streams[conversationID][messageID]
	if sb == nil {
		return "", false
	}
	return sb.String(), true
}

// Snapshot returns a copy of a conversation's buffered streams, keyed by
// message id. Returns nil when nothing is buffered.
func (b *StreamBuffer) Snapshot(conversationID int64) map[int64]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conv := b.streams[conversationID]
	if len(conv) == 0 {
		return nil
	}
	out := make(map[int64]string, len(conv))
	for id, sb := range conv {
		out[id] = sb.String()
	}
	return out
}

// Evict drops one message's buffered text. Called after the final store
// write is confirmed, so the stored row takes over seamlessly.
func (b *StreamBuffer) Evict(conversationID, messageID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conv := b.streams[conversationID]
	if conv == nil {
		return
	}
	delete(conv, messageID)
	if len(conv) == 0 {
		delete(b.streams, conversationID)
	}
}
