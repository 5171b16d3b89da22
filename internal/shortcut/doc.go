// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shortcut maps preset shortcut keys to presets.
//
// Presets may claim one key from a small fixed alphabet. Space is a
// sentinel that always starts a conversation on the default provider and
// can't be claimed. Holding the platform's new-pane modifier opens the
// conversation in a fresh pane instead of reusing the active one; the
// platform-specific modifier choice is isolated in one lookup.
//
// # Key Types
//
//   - Registry: shortcut key -> preset resolution, rebuilt on preset edits
//   - Binding: one resolved shortcut with its chords
package shortcut
