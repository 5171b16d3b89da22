// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the bubbletea front end: side-by-side conversation
// panes, the input line, and the status bar.
//
// The Model is a thin event loop over the conversation controller and the
// pane set. Sends run on their own goroutines; the controller's OnUpdate
// hook feeds ConversationUpdatedMsg back through the program so panes
// re-render while a response streams.
package ui
