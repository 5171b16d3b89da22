// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/panechat/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// HistoryEntry is one replayed exchange of the agent transcript.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StepRequest is one agent step.
type StepRequest struct {
	// Description is the agent persona from the preset.
	Description string
	// Goals is the goal list recorded at conversation start.
	Goals []string
	// Args is the pending command from the previous step.
	Args Args
	// AgentID identifies the run server-side; the conversation id is used.
	AgentID string
	// History is the replayed transcript.
	History []HistoryEntry
	// HumanFeedback, when non-nil, overrides the pending command with a
	// human_feedback instruction.
	HumanFeedback *string
}

type stepPayload struct {
	GPTModel       string          `json:"gpt_model"`
	Command        string          `json:"command"`
	Arguments      json.RawMessage `json:"arguments"`
	AssistantReply string          `json:"assistant_reply"`
	MessageHistory []HistoryEntry  `json:"message_history"`
	AIName         string          `json:"ai_name"`
	AIDescription  string          `json:"ai_description"`
	AIGoals        []string        `json:"ai_goals"`
	AgentID        string          `json:"agent_id"`
	OpenAIKey      string          `json:"openai_key"`
}

// StepResponse is the agent's answer to one step.
type StepResponse struct {
	// Command and Arguments form the next pending command.
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments"`
	// Result is the output of the command the agent just executed.
	Result string `json:"result"`
	// AssistantReply is the raw thoughts JSON, parsed with ParseReply.
	AssistantReply string `json:"assistant_reply"`
}

// NextArgs returns the pending command for the following step.
func (r StepResponse) NextArgs() Args {
	return Args{Command: r.Command, Arguments: r.Arguments}
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds configuration options for the agent client.
type ClientConfig struct {
	// Endpoint is the agent API URL.
	Endpoint string
	// OpenAIKey is forwarded to the agent backend, which makes the model
	// calls itself.
	OpenAIKey string
	// Model is the model the backend should drive. Defaults to
	// gpt-3.5-turbo.
	Model string
	// Timeout bounds one step. Agent steps run tools server-side, so this
	// is generous by default.
	Timeout time.Duration
}

// Client calls the godmode agent API.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	// keyMu guards openAIKey: the config watcher swaps it while steps are
	// in flight.
	keyMu     sync.RWMutex
	openAIKey string
}

// NewClient creates an agent client.
func NewClient(config *ClientConfig) *Client {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		openAIKey:  config.OpenAIKey,
	}
}

// SetOpenAIKey swaps the forwarded key, used when the config file is
// reloaded.
func (c *Client) SetOpenAIKey(key string) {
	c.keyMu.Lock()
	c.openAIKey = key
	c.keyMu.Unlock()
}

func (c *Client) forwardedKey() string {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.openAIKey
}

// Step runs one agent step.
func (c *Client) Step(ctx context.Context, req StepRequest) (StepResponse, error) {
	payload := stepPayload{
		GPTModel:       c.config.Model,
		Command:        req.Args.Command,
		Arguments:      req.Args.Arguments,
		MessageHistory: req.History,
		AIName:         "GodmodeGPT",
		AIDescription:  req.Description,
		AIGoals:        req.Goals,
		AgentID:        req.AgentID,
		OpenAIKey:      c.forwardedKey(),
	}
	if req.HumanFeedback != nil {
		payload.Command = "human_feedback"
		feedback, err := json.Marshal(*req.HumanFeedback)
		if err != nil {
			return StepResponse{}, fmt.Errorf("failed to encode feedback: %w", err)
		}
		payload.Arguments = feedback
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return StepResponse{}, fmt.Errorf("failed to encode agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return StepResponse{}, fmt.Errorf("failed to build agent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return StepResponse{}, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return StepResponse{}, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	var stepResp StepResponse
	if err := json.NewDecoder(resp.Body).Decode(&stepResp); err != nil {
		return StepResponse{}, fmt.Errorf("failed to decode agent response: %w", err)
	}
	return stepResp, nil
}

// =============================================================================
// REPLY PARSING
// =============================================================================

// ParseReply decodes the assistant_reply JSON into a thoughts message body.
// The command field arrives as either a bare string or an object with a
// name; both forms collapse to the command name.
func ParseReply(reply string) (model.AgentThoughtsBody, error) {
	var raw struct {
		Thoughts model.AgentThoughts `json:"thoughts"`
		Command  json.RawMessage     `json:"command"`
	}
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return model.AgentThoughtsBody{}, fmt.Errorf("failed to parse agent reply: %w", err)
	}

	body := model.AgentThoughtsBody{Thoughts: raw.Thoughts}
	if len(raw.Command) > 0 {
		var name string
		if err := json.Unmarshal(raw.Command, &name); err == nil {
			body.Command = name
		} else {
			var obj struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(raw.Command, &obj); err == nil {
				body.Command = obj.Name
			}
		}
	}
	return body, nil
}
