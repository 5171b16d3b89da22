// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and presets.
//
// # Key Types
//
//   - Conversation: a chat session row; title transitions through three
//     states (absent, in progress, set)
//   - Message: a single timestamped record whose Body is a closed sum of
//     kinds (plain chat plus the agent-mode record kinds)
//   - Preset: a reusable chat configuration with an optional keyboard
//     shortcut and a tagged-union provider list
//
// Message bodies and providers are sealed interfaces: every variant lives in
// this package, and consumers switch exhaustively on Kind(). Storage encodes
// both unions as a (kind, JSON payload) pair via EncodeBody/DecodeBody and
// EncodeProviders/DecodeProviders.
package model
