// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panes maps conversations to visible panes.
//
// A Pane is a viewport bound to exactly one conversation. The Set decides,
// for each "open conversation" action, whether to focus an existing pane,
// reuse the active one, or create a new pane, and keeps the single-active
// invariant: at most one pane is active, and only a pane that exists.
//
// # Key Types
//
//   - Pane: pane id plus the conversation it displays
//   - Set: the pane mapping and active-pane state
//   - ReapFunc: hook that deletes a conversation if it never got a message
//
// # Usage
//
//	set := panes.NewSet(ctrl.ReapIfEmpty)
//	set.OpenConversation(convID, false) // reuse the active pane
//	set.OpenConversation(convID, true)  // force a side-by-side pane
package panes
