// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import "github.com/jeranaias/panechat/internal/config"

// =============================================================================
// ASYNC MESSAGES
// =============================================================================

// ConversationUpdatedMsg reports that stored or buffered state for a
// conversation changed. Sent from streaming goroutines via the program
// reference; every pane showing the conversation re-renders.
type ConversationUpdatedMsg struct {
	ConversationID int64
}

// ConfigReloadedMsg carries a freshly loaded config from the file watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// sendResultMsg reports a finished send operation.
type sendResultMsg struct {
	conversationID int64
	err            error
}
