// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/panechat/internal/model"
	"github.com/jeranaias/panechat/internal/shortcut"
	"github.com/jeranaias/panechat/internal/util"
)

// =============================================================================
// VIEW MODES
// =============================================================================

// viewMode selects what the main area shows: the panes, or one of the
// overlays.
type viewMode int

const (
	modeChat viewMode = iota
	modePicker
	modePresets
	modePresetForm
)

// pickerState is the conversation picker overlay.
type pickerState struct {
	items  []model.Conversation
	cursor int
}

// presetListState is the preset manager overlay.
type presetListState struct {
	items  []model.Preset
	cursor int
}

// Preset form field order.
const (
	formTitle = iota
	formShortcut
	formModel
	formSystemPrompt
	formTemperature
	formDescription
	formFieldCount
)

// presetForm is the create/edit form. A non-empty description field makes
// the preset an agent preset; otherwise the chat fields apply.
type presetForm struct {
	inputs  []textinput.Model
	focus   int
	editing *int64
}

// =============================================================================
// CONVERSATION PICKER
// =============================================================================

// openPicker loads the conversation list and shows the picker.
func (m *Model) openPicker() {
	items, err := m.store.ListConversations()
	if err != nil {
		m.lastErr = err
		return
	}
	cursor := m.picker.cursor
	if cursor >= len(items) {
		cursor = 0
	}
	m.picker = pickerState{items: items, cursor: cursor}
	m.mode = modePicker
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch msg.String() {
	case "esc", "ctrl+o":
		m.mode = modeChat
	case "up", "k":
		if m.picker.cursor > 0 {
			m.picker.cursor--
		}
	case "down", "j":
		if m.picker.cursor < len(m.picker.items)-1 {
			m.picker.cursor++
		}
	case "enter":
		m.openPicked(false)
	case "alt+enter":
		m.openPicked(true)
	case "ctrl+x":
		m.deletePicked()
	}
	return m, nil
}

// openPicked routes the selected conversation through the pane decision
// table: an already-visible conversation gets focused, otherwise the active
// pane is reused (or a new pane forced).
func (m *Model) openPicked(newPane bool) {
	if len(m.picker.items) == 0 {
		return
	}
	m.paneSet.OpenConversation(m.picker.items[m.picker.cursor].ID, newPane)
	m.syncViews()
	m.mode = modeChat
}

// deletePicked removes the selected conversation, detaching its panes
// first.
func (m *Model) deletePicked() {
	if len(m.picker.items) == 0 {
		return
	}
	id := m.picker.items[m.picker.cursor].ID
	m.paneSet.CloseConversation(id)
	if err := m.ctrl.RemoveConversation(id); err != nil {
		m.lastErr = err
		return
	}
	m.syncViews()
	m.openPicker()
}

func (m *Model) renderPicker() string {
	var rows []string
	if len(m.picker.items) == 0 {
		rows = append(rows, m.theme.Muted.Render("No conversations yet."))
	}
	for i, conv := range m.picker.items {
		marker := "  "
		title := util.TruncateWidth(conv.DisplayTitle(), 36)
		line := title + " " + m.theme.Muted.Render(conv.TS.Format("Jan 02 15:04"))
		if i == m.picker.cursor {
			marker = "› "
			line = m.theme.PaneTitle.Render(title) + " " + m.theme.Muted.Render(conv.TS.Format("Jan 02 15:04"))
		}
		rows = append(rows, marker+line)
	}
	footer := m.overlayHint("Enter open", "Alt-Enter new pane", "C-x delete", "Esc close")
	return m.renderOverlay("Conversations", strings.Join(rows, "\n"), footer)
}

// =============================================================================
// PRESET MANAGER
// =============================================================================

// openPresets loads the preset list and shows the manager.
func (m *Model) openPresets() {
	items, err := m.store.ListPresets()
	if err != nil {
		m.lastErr = err
		return
	}
	cursor := m.presetList.cursor
	if cursor >= len(items) {
		cursor = 0
	}
	m.presetList = presetListState{items: items, cursor: cursor}
	m.mode = modePresets
}

func (m *Model) handlePresetListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch msg.String() {
	case "esc", "ctrl+p":
		m.mode = modeChat
	case "up", "k":
		if m.presetList.cursor > 0 {
			m.presetList.cursor--
		}
	case "down", "j":
		if m.presetList.cursor < len(m.presetList.items)-1 {
			m.presetList.cursor++
		}
	case "n":
		m.startPresetForm(nil)
	case "enter", "e":
		if len(m.presetList.items) > 0 {
			p := m.presetList.items[m.presetList.cursor]
			m.startPresetForm(&p)
		}
	case "d":
		m.deleteSelectedPreset()
	case "a":
		m.applySelectedPreset()
	}
	return m, nil
}

// deleteSelectedPreset removes a preset; conversations bound to it detach
// in the store.
func (m *Model) deleteSelectedPreset() {
	if len(m.presetList.items) == 0 {
		return
	}
	if err := m.store.DeletePreset(m.presetList.items[m.presetList.cursor].ID); err != nil {
		m.lastErr = err
		return
	}
	m.rebuildRegistry()
	m.openPresets()
}

// applySelectedPreset rebinds the active pane's conversation to the
// selected preset, so the next send uses its provider.
func (m *Model) applySelectedPreset() {
	if len(m.presetList.items) == 0 {
		return
	}
	active, ok := m.paneSet.Active()
	if !ok {
		m.lastErr = errors.New("no active pane to apply the preset to")
		return
	}
	preset := m.presetList.items[m.presetList.cursor]
	if err := m.store.SetConversationPreset(active.ConversationID, preset.ID); err != nil {
		m.lastErr = err
		return
	}
	m.mode = modeChat
}

// rebuildRegistry refreshes shortcut resolution after preset edits.
func (m *Model) rebuildRegistry() {
	presets, err := m.store.ListPresets()
	if err != nil {
		m.lastErr = err
		return
	}
	m.registry.Rebuild(presets)
}

func (m *Model) renderPresetList() string {
	var rows []string
	if len(m.presetList.items) == 0 {
		rows = append(rows, m.theme.Muted.Render("No presets yet. Press n to create one."))
	}
	for i, p := range m.presetList.items {
		marker := "  "
		title := util.TruncateWidth(p.Title, 28)
		if i == m.presetList.cursor {
			marker = "› "
			title = m.theme.PaneTitle.Render(title)
		}
		kind := "chat"
		if p.ActiveProvider().Kind() == model.ProviderAgent {
			kind = "agent"
		}
		line := marker + title + " " + m.theme.Muted.Render(kind)
		if p.Shortcut != nil {
			line += " " + m.theme.ShortcutKey.Render("["+*p.Shortcut+"]")
		}
		rows = append(rows, line)
	}
	footer := m.overlayHint("n new", "Enter edit", "d delete", "a apply to pane", "Esc close")
	return m.renderOverlay("Presets", strings.Join(rows, "\n"), footer)
}

// =============================================================================
// PRESET FORM
// =============================================================================

var presetFormLabels = [formFieldCount]string{
	"Title",
	"Shortcut (a/s/d/f, empty for none)",
	"Model",
	"System prompt",
	"Temperature (0-1)",
	"Agent description (non-empty = agent preset)",
}

// startPresetForm opens the form, prefilled when editing.
func (m *Model) startPresetForm(p *model.Preset) {
	inputs := make([]textinput.Model, formFieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Prompt = ""
		inputs[i].Width = 44
	}
	inputs[formModel].Placeholder = model.DefaultModel
	inputs[formTemperature].Placeholder = strconv.FormatFloat(model.DefaultTemperature, 'f', -1, 64)

	form := presetForm{inputs: inputs}
	if p != nil {
		id := p.ID
		form.editing = &id
		inputs[formTitle].SetValue(p.Title)
		if p.Shortcut != nil {
			inputs[formShortcut].SetValue(*p.Shortcut)
		}
		for _, provider := range p.Providers {
			switch provider := provider.(type) {
			case model.OpenAIProvider:
				inputs[formModel].SetValue(provider.Model)
				inputs[formSystemPrompt].SetValue(provider.SystemPrompt)
				inputs[formTemperature].SetValue(strconv.FormatFloat(provider.Temperature, 'f', -1, 64))
			case model.AgentProvider:
				inputs[formDescription].SetValue(provider.Description)
			}
		}
	}
	form.inputs[formTitle].Focus()
	m.form = form
	m.mode = modePresetForm
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch msg.String() {
	case "esc":
		m.openPresets()
		return m, nil
	case "tab", "down":
		m.focusFormField(1)
		return m, nil
	case "shift+tab", "up":
		m.focusFormField(-1)
		return m, nil
	case "enter":
		m.savePresetForm()
		return m, nil
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusFormField(delta int) {
	m.form.inputs[m.form.focus].Blur()
	m.form.focus = (m.form.focus + delta + formFieldCount) % formFieldCount
	m.form.inputs[m.form.focus].Focus()
}

// savePresetForm validates and persists the form, then rebuilds the
// shortcut registry.
func (m *Model) savePresetForm() {
	title := strings.TrimSpace(m.form.inputs[formTitle].Value())
	if title == "" {
		m.lastErr = errors.New("preset title is required")
		return
	}

	var shortcutKey *string
	if s := strings.TrimSpace(m.form.inputs[formShortcut].Value()); s != "" {
		if !shortcut.Valid(s) {
			m.lastErr = fmt.Errorf("shortcut %q is not one of a/s/d/f", s)
			return
		}
		shortcutKey = &s
	}

	var provider model.Provider
	if desc := strings.TrimSpace(m.form.inputs[formDescription].Value()); desc != "" {
		provider = model.AgentProvider{Description: desc}
	} else {
		temperature := model.DefaultTemperature
		if raw := strings.TrimSpace(m.form.inputs[formTemperature].Value()); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed < 0 || parsed > 1 {
				m.lastErr = fmt.Errorf("temperature %q must be a number in [0,1]", raw)
				return
			}
			temperature = parsed
		}
		mdl := strings.TrimSpace(m.form.inputs[formModel].Value())
		if mdl == "" {
			mdl = model.DefaultModel
		}
		prompt := strings.TrimSpace(m.form.inputs[formSystemPrompt].Value())
		if prompt == "" {
			prompt = model.DefaultSystemPrompt
		}
		provider = model.OpenAIProvider{Model: mdl, SystemPrompt: prompt, Temperature: temperature}
	}

	preset := model.Preset{
		Title:     title,
		Shortcut:  shortcutKey,
		Providers: []model.Provider{provider},
	}

	var err error
	if m.form.editing != nil {
		preset.ID = *m.form.editing
		err = m.store.PutPreset(preset)
	} else {
		_, err = m.store.AddPreset(preset)
	}
	if err != nil {
		m.lastErr = err
		return
	}

	m.rebuildRegistry()
	m.openPresets()
}

func (m *Model) renderPresetForm() string {
	var rows []string
	for i, input := range m.form.inputs {
		label := m.theme.Muted.Render(presetFormLabels[i])
		if i == m.form.focus {
			label = m.theme.ShortcutKey.Render(presetFormLabels[i])
		}
		rows = append(rows, label, input.View(), "")
	}
	title := "New preset"
	if m.form.editing != nil {
		title = "Edit preset"
	}
	footer := m.overlayHint("Enter save", "Tab next field", "Esc cancel")
	return m.renderOverlay(title, strings.Join(rows, "\n"), footer)
}

// =============================================================================
// OVERLAY CHROME
// =============================================================================

func (m *Model) renderOverlay(title, body, footer string) string {
	content := m.theme.PaneTitle.Render(title) + "\n\n" + body + "\n\n" + footer
	box := m.theme.PaneActive.Render(content)
	return lipgloss.Place(max(m.width, 1), max(m.paneContentHeight()+2, 1),
		lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) overlayHint(hints ...string) string {
	return m.theme.Muted.Render(strings.Join(hints, " · "))
}
