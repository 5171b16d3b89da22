// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates conversations: sending messages, streaming
// responses into the in-memory buffer, auto-titling, and the agent-mode
// step loop.
//
// # Key Types
//
//   - Controller: the operations behind the UI (SendMessage,
//     SendAgentMessage, StartNewConversation, RemoveConversation,
//     ReapIfEmpty)
//   - StreamBuffer: per-conversation, per-message accumulation of stream
//     deltas, merged over stored messages at render time
//   - Selector: memoized merge of stored messages with buffered streams
//
// The persistence contract during a send: the user message and an empty
// assistant row are stored up front, deltas accumulate only in the
// StreamBuffer, and the full response is written to the assistant row once
// the stream finishes. The buffer entry is evicted only after that final
// write succeeds, so renderers never observe a blank assistant message.
package chat
