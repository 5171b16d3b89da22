// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a chat session. PresetID is nil for ad-hoc conversations,
// which fall back to the default provider.
//
// Title is tri-state: nil means no title has ever been requested, empty
// string means titling is in flight (persisted as a sentinel so a crashed
// titling run is visible), and a non-empty string is the final title.
type Conversation struct {
	ID       int64
	TS       time.Time
	PresetID *int64
	Title    *string
}

// HasTitle reports whether the conversation has a finished, non-empty title.
func (c Conversation) HasTitle() bool {
	return c.Title != nil && *c.Title != ""
}

// TitleRequested reports whether titling has started (including the
// in-flight empty sentinel).
func (c Conversation) TitleRequested() bool {
	return c.Title != nil
}

// DisplayTitle returns the title to render, with a fallback for untitled
// conversations.
func (c Conversation) DisplayTitle() string {
	if c.HasTitle() {
		return *c.Title
	}
	return "New chat"
}
