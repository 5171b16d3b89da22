// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/panechat/internal/shortcut"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings for the pane view. Preset shortcuts
// come from the shortcut registry, not from here.
type KeyMap struct {
	Submit    key.Binding
	NextPane  key.Binding
	ClosePane key.Binding
	Delete    key.Binding
	AgentStep  key.Binding
	OpenPicker key.Binding
	Presets    key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Quit       key.Binding

	// NewChat and NewChatPane are the Space-sentinel chords: a fresh
	// conversation on the default provider, reusing or forcing a pane.
	NewChat     key.Binding
	NewChatPane key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next pane"),
		),
		ClosePane: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("C-w", "close pane"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete conversation"),
		),
		AgentStep: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "agent step"),
		),
		OpenPicker: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "conversations"),
		),
		Presets: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "presets"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("C-q", "quit"),
		),
		NewChat: key.NewBinding(
			key.WithKeys(shortcut.Chord(shortcut.Space)),
			key.WithHelp("C-Space", "new chat"),
		),
		NewChatPane: key.NewBinding(
			key.WithKeys(shortcut.NewPaneChord(shortcut.Space)),
			key.WithHelp("C-A-Space", "new chat pane"),
		),
	}
}
