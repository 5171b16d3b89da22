// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/panechat/internal/shortcut"
	"github.com/jeranaias/panechat/internal/ui/styles"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles one event.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.md = newMarkdownRenderer(m.paneContentWidth(max(1, m.paneSet.Len()))-2, m.theme.GlamourStyle())
		m.input.Width = msg.Width - 6
		m.resizeViews()
		return m, nil

	case ConversationUpdatedMsg:
		m.refreshConversation(msg.ConversationID)
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.theme = styles.NewTheme(msg.Config.UI.Theme)
		m.md = newMarkdownRenderer(m.paneContentWidth(max(1, m.paneSet.Len()))-2, m.theme.GlamourStyle())
		m.resizeViews()
		return m, nil

	case sendResultMsg:
		delete(m.sending, msg.conversationID)
		if msg.err != nil {
			m.lastErr = msg.err
			m.log.Warn().Err(msg.err).Int64("conversation", msg.conversationID).Msg("send failed")
		}
		m.refreshConversation(msg.conversationID)
		return m, nil

	case spinner.TickMsg:
		if len(m.sending) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes one key press. Overlays capture the keyboard while
// open.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastErr = nil

	switch m.mode {
	case modePicker:
		return m.handlePickerKey(msg)
	case modePresets:
		return m.handlePresetListKey(msg)
	case modePresetForm:
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.AgentStep):
		return m.agentStep()

	case key.Matches(msg, m.keys.NextPane):
		m.focusNextPane()
		return m, nil

	case key.Matches(msg, m.keys.ClosePane):
		if active, ok := m.paneSet.Active(); ok {
			m.paneSet.ClosePane(active.ID)
			m.syncViews()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.deleteActiveConversation()
		return m, nil

	case key.Matches(msg, m.keys.OpenPicker):
		m.openPicker()
		return m, nil

	case key.Matches(msg, m.keys.Presets):
		m.openPresets()
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.openPreset(nil, false)
		return m, nil

	case key.Matches(msg, m.keys.NewChatPane):
		m.openPreset(nil, true)
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		if view, ok := m.activeView(); ok {
			var cmd tea.Cmd
			view.viewport, cmd = view.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.handleShortcut(msg.String()) {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleShortcut matches preset shortcut chords. Returns true when the key
// was consumed.
func (m *Model) handleShortcut(pressed string) bool {
	for _, k := range shortcut.Keys {
		var newPane bool
		switch pressed {
		case shortcut.Chord(k):
			newPane = false
		case shortcut.NewPaneChord(k):
			newPane = true
		default:
			continue
		}
		binding, ok := m.registry.Resolve(k)
		if !ok {
			m.log.Debug().Str("key", k).Msg("shortcut unbound")
			return false
		}
		m.openPreset(binding.PresetID, newPane)
		return true
	}
	return false
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input line to the active pane's conversation, creating a
// conversation and pane when none exists.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	view, ok := m.activeView()
	if !ok {
		m.openPreset(nil, false)
		view, ok = m.activeView()
		if !ok {
			return m, nil
		}
	}
	conversationID := view.pane.ConversationID
	if m.sending[conversationID] {
		return m, nil
	}

	if m.isAgentConversation(conversationID) {
		return m.runAgentStep(conversationID, &text)
	}

	m.input.SetValue("")
	m.sending[conversationID] = true
	send := func() tea.Msg {
		return sendResultMsg{
			conversationID: conversationID,
			err:            m.ctrl.SendMessage(context.Background(), conversationID, text),
		}
	}
	return m, tea.Batch(send, m.spin.Tick)
}

// agentStep runs one agent step without feedback, or with the input line as
// feedback when it is non-empty.
func (m *Model) agentStep() (tea.Model, tea.Cmd) {
	view, ok := m.activeView()
	if !ok {
		return m, nil
	}
	conversationID := view.pane.ConversationID
	if m.sending[conversationID] {
		return m, nil
	}

	var feedback *string
	if text := strings.TrimSpace(m.input.Value()); text != "" {
		feedback = &text
	}
	return m.runAgentStep(conversationID, feedback)
}

func (m *Model) runAgentStep(conversationID int64, feedback *string) (tea.Model, tea.Cmd) {
	m.input.SetValue("")
	m.sending[conversationID] = true
	step := func() tea.Msg {
		return sendResultMsg{
			conversationID: conversationID,
			err:            m.ctrl.SendAgentMessage(context.Background(), conversationID, feedback),
		}
	}
	return m, tea.Batch(step, m.spin.Tick)
}

// openPreset starts a conversation on a preset (nil for the default
// provider) and routes it to a pane.
func (m *Model) openPreset(presetID *int64, newPane bool) {
	id, err := m.ctrl.StartNewConversation(presetID)
	if err != nil {
		m.lastErr = err
		return
	}
	m.paneSet.OpenConversation(id, newPane)
	m.syncViews()
}

// focusNextPane cycles activation through the panes in layout order.
func (m *Model) focusNextPane() {
	all := m.paneSet.Panes()
	if len(all) < 2 {
		return
	}
	active, ok := m.paneSet.Active()
	if !ok {
		m.paneSet.SetActive(all[0].ID)
		return
	}
	for i, p := range all {
		if p.ID == active.ID {
			m.paneSet.SetActive(all[(i+1)%len(all)].ID)
			return
		}
	}
}

// deleteActiveConversation removes the active pane's conversation. Panes
// are detached first so none is left pointing at a dead row.
func (m *Model) deleteActiveConversation() {
	active, ok := m.paneSet.Active()
	if !ok {
		return
	}
	m.paneSet.CloseConversation(active.ConversationID)
	if err := m.ctrl.RemoveConversation(active.ConversationID); err != nil {
		m.lastErr = err
	}
	m.syncViews()
}
