// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/panechat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen: the pane row (or an overlay), the input
// line, and the status bar.
func (m *Model) View() string {
	var sections []string

	switch m.mode {
	case modePicker:
		sections = append(sections, m.renderPicker())
	case modePresets:
		sections = append(sections, m.renderPresetList())
	case modePresetForm:
		sections = append(sections, m.renderPresetForm())
	default:
		sections = append(sections, m.renderPanes())
	}
	sections = append(sections, m.renderInput())
	if m.lastErr != nil {
		sections = append(sections, m.theme.ErrorBox.Render(m.lastErr.Error()))
	}
	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderPanes lays the panes out side by side, active pane highlighted.
func (m *Model) renderPanes() string {
	all := m.paneSet.Panes()
	if len(all) == 0 {
		empty := m.theme.Muted.Render("No conversation open. ctrl+space starts one; a/s/d/f chords open presets.")
		return lipgloss.Place(max(m.width, 1), max(m.paneContentHeight()+2, 1), lipgloss.Center, lipgloss.Center, empty)
	}

	active, _ := m.paneSet.Active()
	rendered := make([]string, 0, len(all))
	for _, p := range all {
		view, ok := m.views[p.ID]
		if !ok {
			continue
		}

		style := m.theme.Pane
		if p.ID == active.ID {
			style = m.theme.PaneActive
		}

		title := m.paneTitle(p.ConversationID)
		body := view.viewport.View()
		rendered = append(rendered, style.Render(title+"\n"+body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// paneTitle renders the conversation title line. An in-flight title shows
// the spinner instead of the empty sentinel.
func (m *Model) paneTitle(conversationID int64) string {
	conv, err := m.store.GetConversation(conversationID)
	if err != nil {
		return m.theme.PaneTitle.Render("(gone)")
	}

	title := conv.DisplayTitle()
	if conv.TitleRequested() && !conv.HasTitle() {
		title = m.spin.View() + "titling"
	}
	title = util.TruncateWidth(title, m.cfg.UI.PaneTitleWidth)

	n, err := m.store.CountMessages(conversationID)
	counter := ""
	if err == nil {
		counter = m.theme.PaneCounter.Render(" " + countLabel(n))
	}
	return m.theme.PaneTitle.Render(title) + counter
}

func countLabel(n int) string {
	if n == 1 {
		return "(1 msg)"
	}
	return "(" + strconv.Itoa(n) + " msgs)"
}

// renderInput renders the prompt line, with the spinner while any send is
// in flight.
func (m *Model) renderInput() string {
	line := m.input.View()
	if len(m.sending) > 0 {
		line = m.spin.View() + " " + line
	}
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(line)
}

// renderStatusBar lists the key bindings and the bound preset shortcuts.
func (m *Model) renderStatusBar() string {
	var parts []string
	for _, b := range []struct{ key, desc string }{
		{"Enter", "send"},
		{"Tab", "pane"},
		{"C-w", "close"},
		{"C-x", "delete"},
		{"C-g", "agent"},
		{"C-o", "convos"},
		{"C-p", "presets"},
		{"C-q", "quit"},
	} {
		parts = append(parts, m.theme.ShortcutKey.Render(b.key)+" "+m.theme.ShortcutDesc.Render(b.desc))
	}

	for _, binding := range m.registry.Bindings() {
		if binding.PresetID == nil {
			continue
		}
		preset, err := m.store.GetPreset(*binding.PresetID)
		if err != nil {
			continue
		}
		parts = append(parts,
			m.theme.ShortcutKey.Render("C-"+binding.Key)+" "+
				m.theme.ShortcutDesc.Render(util.TruncateWidth(preset.Title, 12)))
	}

	return m.theme.StatusBar.Width(max(m.width, 10)).Render(strings.Join(parts, "  "))
}
