// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/panechat/internal/chat"
	"github.com/jeranaias/panechat/internal/config"
	"github.com/jeranaias/panechat/internal/logging"
	"github.com/jeranaias/panechat/internal/model"
	"github.com/jeranaias/panechat/internal/panes"
	"github.com/jeranaias/panechat/internal/shortcut"
	"github.com/jeranaias/panechat/internal/storage"
	"github.com/jeranaias/panechat/internal/ui/styles"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// paneView is the render state for one pane: its viewport and its own merge
// selector, so per-pane scroll position survives streaming re-renders.
type paneView struct {
	pane     panes.Pane
	viewport viewport.Model
	selector *chat.Selector
}

// Options wires a Model.
type Options struct {
	Config   *config.Config
	Store    *storage.Store
	Ctrl     *chat.Controller
	Panes    *panes.Set
	Registry *shortcut.Registry
}

// Model is the main bubbletea model.
type Model struct {
	cfg      *config.Config
	store    *storage.Store
	ctrl     *chat.Controller
	paneSet  *panes.Set
	registry *shortcut.Registry

	theme *styles.Theme
	md    *markdownRenderer
	keys  KeyMap
	input textinput.Model
	spin  spinner.Model
	log   zerolog.Logger

	views   map[uuid.UUID]*paneView
	width   int
	height  int
	sending map[int64]bool
	lastErr error

	mode       viewMode
	picker     pickerState
	presetList presetListState
	form       presetForm
}

// NewModel creates the application model.
func NewModel(opts Options) *Model {
	theme := styles.NewTheme(opts.Config.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Type a message (ctrl+space for a new chat)"
	input.Prompt = "> "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Muted

	return &Model{
		cfg:      opts.Config,
		store:    opts.Store,
		ctrl:     opts.Ctrl,
		paneSet:  opts.Panes,
		registry: opts.Registry,
		theme:    theme,
		md:       newMarkdownRenderer(80, theme.GlamourStyle()),
		keys:     DefaultKeyMap(),
		input:    input,
		spin:     sp,
		log:      logging.For("ui"),
		views:    make(map[uuid.UUID]*paneView),
		sending:  make(map[int64]bool),
	}
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// PANE BOOKKEEPING
// =============================================================================

// syncViews reconciles the per-pane render state with the pane set: new
// panes get a viewport and selector, closed panes are dropped, rebound
// panes are re-rendered.
func (m *Model) syncViews() {
	current := m.paneSet.Panes()

	seen := make(map[uuid.UUID]bool, len(current))
	for _, p := range current {
		seen[p.ID] = true
		view, ok := m.views[p.ID]
		if !ok {
			vp := viewport.New(m.paneContentWidth(len(current)), m.paneContentHeight())
			view = &paneView{pane: p, viewport: vp, selector: chat.NewSelector()}
			m.views[p.ID] = view
		}
		if view.pane.ConversationID != p.ConversationID || !ok {
			view.pane = p
			m.refreshView(view)
			view.viewport.GotoBottom()
		}
	}
	for id := range m.views {
		if !seen[id] {
			delete(m.views, id)
		}
	}
	m.resizeViews()
}

// refreshView re-renders a pane's transcript.
func (m *Model) refreshView(view *paneView) {
	messages, err := m.ctrl.Messages(view.pane.ConversationID, view.selector)
	if err != nil {
		m.log.Warn().Err(err).Int64("conversation", view.pane.ConversationID).Msg("render failed")
		return
	}
	atBottom := view.viewport.AtBottom()
	view.viewport.SetContent(renderMessages(m.theme, m.md, messages))
	if atBottom {
		view.viewport.GotoBottom()
	}
}

// refreshConversation re-renders every pane showing a conversation.
func (m *Model) refreshConversation(conversationID int64) {
	for _, view := range m.views {
		if view.pane.ConversationID == conversationID {
			m.refreshView(view)
		}
	}
}

func (m *Model) resizeViews() {
	n := len(m.views)
	if n == 0 {
		return
	}
	w := m.paneContentWidth(n)
	h := m.paneContentHeight()
	for _, view := range m.views {
		view.viewport.Width = w
		view.viewport.Height = h
		m.refreshView(view)
	}
}

// paneContentWidth splits the terminal between panes, minus borders and
// padding.
func (m *Model) paneContentWidth(paneCount int) int {
	if paneCount < 1 {
		paneCount = 1
	}
	w := m.width/paneCount - 4
	if w < 10 {
		w = 10
	}
	return w
}

// paneContentHeight leaves room for the pane title, input line and status
// bar.
func (m *Model) paneContentHeight() int {
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

// activeView returns the render state of the active pane.
func (m *Model) activeView() (*paneView, bool) {
	active, ok := m.paneSet.Active()
	if !ok {
		return nil, false
	}
	view, ok := m.views[active.ID]
	return view, ok
}

// isAgentConversation reports whether a conversation's preset drives the
// agent loop.
func (m *Model) isAgentConversation(conversationID int64) bool {
	conv, err := m.store.GetConversation(conversationID)
	if err != nil || conv.PresetID == nil {
		return false
	}
	preset, err := m.store.GetPreset(*conv.PresetID)
	if err != nil {
		return false
	}
	return preset.ActiveProvider().Kind() == model.ProviderAgent
}
