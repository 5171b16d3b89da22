// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/panechat/internal/agent"
	"github.com/jeranaias/panechat/internal/config"
	"github.com/jeranaias/panechat/internal/logging"
	"github.com/jeranaias/panechat/internal/model"
	"github.com/jeranaias/panechat/internal/openai"
	"github.com/jeranaias/panechat/internal/storage"
)

// ErrNoAgentPreset is returned when an agent send targets a conversation
// whose preset has no agent provider.
var ErrNoAgentPreset = errors.New("conversation has no agent preset")

// ErrNoAgentGoals is returned when an agent conversation is missing its
// goals record.
var ErrNoAgentGoals = errors.New("agent goals not found")

// =============================================================================
// CONTROLLER
// =============================================================================

// Options wires a Controller.
type Options struct {
	Store       *storage.Store
	Completions *openai.Client
	Agent       *agent.Client // nil disables agent mode
	DataDir     string

	// OnUpdate is called (from streaming goroutines) whenever buffered or
	// stored state for a conversation changed and the UI should redraw.
	OnUpdate func(conversationID int64)
}

// Controller implements the conversation operations behind the UI.
type Controller struct {
	store   *storage.Store
	client  *openai.Client
	agent   *agent.Client
	buffer  *StreamBuffer
	dataDir string
	log     zerolog.Logger

	onUpdate func(conversationID int64)

	cfgMu sync.RWMutex
	cfg   *config.Config

	// titleWG tracks fire-and-forget titling goroutines so shutdown and
	// tests can wait them out.
	titleWG sync.WaitGroup
}

// NewController creates a controller.
func NewController(cfg *config.Config, opts Options) *Controller {
	onUpdate := opts.OnUpdate
	if onUpdate == nil {
		onUpdate = func(int64) {}
	}
	return &Controller{
		store:    opts.Store,
		client:   opts.Completions,
		agent:    opts.Agent,
		buffer:   NewStreamBuffer(),
		dataDir:  opts.DataDir,
		log:      logging.For("chat"),
		onUpdate: onUpdate,
		cfg:      cfg,
	}
}

// Buffer exposes the stream buffer for render-time merging.
func (c *Controller) Buffer() *StreamBuffer {
	return c.buffer
}

// SetConfig swaps the active configuration, propagating the API key to the
// clients. Called from the config file watcher.
func (c *Controller) SetConfig(cfg *config.Config) {
	c.cfgMu.Lock()
	c.cfg = cfg
	c.cfgMu.Unlock()

	c.client.SetAPIKey(cfg.API.OpenAIKey)
	if c.agent != nil {
		c.agent.SetOpenAIKey(cfg.API.OpenAIKey)
	}
}

func (c *Controller) configSnapshot() *config.Config {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}

// =============================================================================
// SENDING
// =============================================================================

// SendMessage stores the user prompt, streams the assistant response into
// the buffer, and writes the full response to the store when the stream
// completes. Blocks until the stream is done; run it on its own goroutine.
//
// On stream failure the error propagates and nothing is rolled back: the
// user message, the empty assistant row, and any buffered partial text all
// stay, matching what the user already saw on screen.
func (c *Controller) SendMessage(ctx context.Context, conversationID int64, prompt string) error {
	cfg := c.configSnapshot()
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	if _, err := c.store.AddMessage(conversationID, model.OpenAIBody{
		Role:    model.RoleUser,
		Content: prompt,
	}); err != nil {
		return err
	}

	conv, err := c.store.GetConversation(conversationID)
	if err != nil {
		return err
	}

	if !conv.TitleRequested() {
		c.spawnTitle(conversationID, prompt)
	}

	// History is captured before the assistant row exists, so the empty
	// row never replays into the request.
	history, err := c.store.ListMessages(conversationID)
	if err != nil {
		return err
	}

	assistantID, err := c.store.AddMessage(conversationID, model.OpenAIBody{
		Role:    model.RoleAssistant,
		Content: "",
	})
	if err != nil {
		return err
	}
	c.onUpdate(conversationID)

	provider := c.chatProviderFor(conv)
	req := openai.ChatRequest{
		Model:       provider.Model,
		Messages:    buildChatHistory(provider.SystemPrompt, history, cfg.Defaults.HistoryWindow),
		Temperature: provider.Temperature,
		MaxTokens:   cfg.Defaults.MaxTokens,
	}

	full, err := c.client.ChatStream(ctx, req, func(delta string) {
		c.buffer.Append(conversationID, assistantID, delta)
		c.onUpdate(conversationID)
	})
	if err != nil {
		return err
	}

	if err := c.store.SetMessageContent(assistantID, full); err != nil {
		return err
	}
	// Evict only after the write above: the stored row now carries the
	// text the buffer held.
	c.buffer.Evict(conversationID, assistantID)
	c.onUpdate(conversationID)
	return nil
}

// chatProviderFor resolves the completion provider for a conversation: the
// preset's first OpenAI provider, or the default. A dangling preset
// reference also falls back to the default.
func (c *Controller) chatProviderFor(conv model.Conversation) model.OpenAIProvider {
	if conv.PresetID == nil {
		return model.DefaultProvider()
	}
	preset, err := c.store.GetPreset(*conv.PresetID)
	if err != nil {
		c.log.Warn().Err(err).Int64("preset", *conv.PresetID).Msg("preset lookup failed, using default provider")
		return model.DefaultProvider()
	}
	for _, p := range preset.Providers {
		if oai, ok := p.(model.OpenAIProvider); ok {
			return oai
		}
	}
	return model.DefaultProvider()
}

// buildChatHistory assembles the request message list: the system prompt
// followed by the trailing window of plain chat messages. Agent-kind
// records never replay into a chat completion.
func buildChatHistory(systemPrompt string, history []model.Message, window int) []openai.ChatMessage {
	out := []openai.ChatMessage{{Role: string(model.RoleSystem), Content: systemPrompt}}

	start := len(history) - window
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		body, ok := msg.Body.(model.OpenAIBody)
		if !ok {
			continue
		}
		out = append(out, openai.ChatMessage{Role: string(body.Role), Content: body.Content})
	}
	return out
}

// =============================================================================
// AGENT MODE
// =============================================================================

// SendAgentMessage runs one agent step for a conversation whose preset has
// an agent provider. humanFeedback is nil for a plain "continue" step; on
// the first step of a run it carries the newline-separated goal list.
func (c *Controller) SendAgentMessage(ctx context.Context, conversationID int64, humanFeedback *string) error {
	if c.agent == nil {
		return ErrNoAgentPreset
	}
	cfg := c.configSnapshot()
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	conv, err := c.store.GetConversation(conversationID)
	if err != nil {
		return err
	}
	description, err := c.agentDescriptionFor(conv)
	if err != nil {
		return err
	}

	if !conv.TitleRequested() {
		seed := ""
		if humanFeedback != nil {
			seed = *humanFeedback
		}
		c.spawnTitle(conversationID, seed)
	}

	messages, err := c.store.ListMessages(conversationID)
	if err != nil {
		return err
	}

	args, err := agent.LoadArgs(c.dataDir)
	if err != nil {
		c.log.Warn().Err(err).Msg("agent args unreadable, starting fresh")
		args = agent.DefaultArgs()
	}

	// First step records the goals; later steps record feedback, if any.
	if len(messages) == 0 {
		goals := []string{}
		if humanFeedback != nil {
			goals = splitGoals(*humanFeedback)
		}
		if _, err := c.store.AddMessage(conversationID, model.AgentGoalsBody{Goals: goals}); err != nil {
			return err
		}
	} else if humanFeedback != nil {
		if _, err := c.store.AddMessage(conversationID, model.UserFeedbackBody{
			Role:    model.RoleUser,
			Content: *humanFeedback,
		}); err != nil {
			return err
		}
	}
	c.onUpdate(conversationID)

	goals, err := c.agentGoals(conversationID)
	if err != nil {
		return err
	}

	resp, err := c.agent.Step(ctx, agent.StepRequest{
		Description:   description,
		Goals:         goals,
		Args:          args,
		AgentID:       strconv.FormatInt(conversationID, 10),
		History:       buildAgentHistory(messages),
		HumanFeedback: humanFeedback,
	})
	if err != nil {
		return err
	}

	if err := agent.SaveArgs(c.dataDir, resp.NextArgs()); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist agent args")
	}

	if _, err := c.store.AddMessage(conversationID, model.AgentResultBody{Content: resp.Result}); err != nil {
		return err
	}
	thoughts, err := agent.ParseReply(resp.AssistantReply)
	if err != nil {
		return fmt.Errorf("agent reply unusable: %w", err)
	}
	if _, err := c.store.AddMessage(conversationID, thoughts); err != nil {
		return err
	}
	c.onUpdate(conversationID)
	return nil
}

// agentDescriptionFor returns the agent persona from the conversation's
// preset.
func (c *Controller) agentDescriptionFor(conv model.Conversation) (string, error) {
	if conv.PresetID == nil {
		return "", ErrNoAgentPreset
	}
	preset, err := c.store.GetPreset(*conv.PresetID)
	if err != nil {
		return "", err
	}
	for _, p := range preset.Providers {
		if ag, ok := p.(model.AgentProvider); ok {
			return ag.Description, nil
		}
	}
	return "", ErrNoAgentPreset
}

// agentGoals returns the goal list recorded at the start of the run.
func (c *Controller) agentGoals(conversationID int64) ([]string, error) {
	messages, err := c.store.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}
	for _, msg := range messages {
		if goals, ok := msg.Body.(model.AgentGoalsBody); ok {
			return goals.Goals, nil
		}
	}
	return nil, ErrNoAgentGoals
}

// buildAgentHistory reconstructs the transcript the agent backend expects.
// Only thoughts and result records replay: a thoughts record becomes the
// standing user instruction plus the agent's JSON answer, a result record
// becomes the system line carrying the command output. Goals and feedback
// records stay local.
func buildAgentHistory(messages []model.Message) []agent.HistoryEntry {
	const nextCommandPrompt = "Determine which next command to use, and respond using the format specified above:"

	var out []agent.HistoryEntry
	for _, msg := range messages {
		switch body := msg.Body.(type) {
		case model.AgentThoughtsBody:
			reply, err := marshalThoughts(body)
			if err != nil {
				continue
			}
			out = append(out,
				agent.HistoryEntry{Role: "user", Content: nextCommandPrompt},
				agent.HistoryEntry{Role: "assistant", Content: reply},
			)
		case model.AgentResultBody:
			out = append(out, agent.HistoryEntry{Role: "system", Content: body.Content})
		}
	}
	return out
}

// marshalThoughts renders a thoughts record the way the agent backend
// printed it: pretty JSON, four-space indent.
func marshalThoughts(body model.AgentThoughtsBody) (string, error) {
	data, err := json.MarshalIndent(body, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// splitGoals turns the newline-separated goal input into a list, dropping
// blank lines.
func splitGoals(input string) []string {
	goals := []string{}
	for _, line := range strings.Split(input, "\n") {
		if line != "" {
			goals = append(goals, line)
		}
	}
	return goals
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// StartNewConversation creates a conversation, optionally bound to a
// preset.
func (c *Controller) StartNewConversation(presetID *int64) (int64, error) {
	id, err := c.store.AddConversation(presetID)
	if err != nil {
		return 0, err
	}
	c.log.Debug().Int64("conversation", id).Msg("conversation created")
	return id, nil
}

// RemoveConversation deletes a conversation and its messages.
func (c *Controller) RemoveConversation(conversationID int64) error {
	return c.store.DeleteConversation(conversationID)
}

// ReapIfEmpty deletes a conversation that never received a message. Called
// when navigation moves away from a conversation.
func (c *Controller) ReapIfEmpty(conversationID int64) error {
	n, err := c.store.CountMessages(conversationID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	c.log.Debug().Int64("conversation", conversationID).Msg("reaping empty conversation")
	return c.store.DeleteConversation(conversationID)
}

// Messages returns a conversation's messages with buffered stream text
// merged in. selector must be the caller's own (one per view) so that
// memoization tracks that view's render cadence.
func (c *Controller) Messages(conversationID int64, selector *Selector) ([]model.Message, error) {
	stored, err := c.store.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}
	return selector.Merge(stored, c.buffer.Snapshot(conversationID)), nil
}
