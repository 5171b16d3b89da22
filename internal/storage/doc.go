// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations, messages, and presets in a local
// SQLite database (~/.panechat/panechat.db).
//
// # Key Types
//
//   - Store: database handle with typed accessors per table
//   - ErrNotFound: sentinel for lookups of missing rows (errors.Is)
//   - StoreError: wrapper for driver-level failures (errors.As)
//
// Listings are newest-first for conversations and presets; messages list in
// insertion order. Deleting a conversation cascades to its messages;
// deleting a preset detaches the conversations that referenced it.
package storage
