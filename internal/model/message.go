// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// ROLES AND KINDS
// =============================================================================

// Role identifies the speaker of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageKind discriminates the message body union. The string values are
// the persisted wire tags, so they must never change.
type MessageKind string

const (
	// KindOpenAI is a plain chat message (user, assistant, or system).
	KindOpenAI MessageKind = "open-ai"

	// Agent-mode record kinds. A single agent exchange appends several of
	// these to the conversation: the goal list once at the start, then a
	// thoughts/result pair per step, with user feedback rows in between.
	KindAgentGoals    MessageKind = "godmode-agent-goals"
	KindAgentThoughts MessageKind = "godmode-agent-thoughts"
	KindAgentResult   MessageKind = "godmode-agent-result"
	KindUserFeedback  MessageKind = "godmode-user-feedback"
)

// =============================================================================
// MESSAGE BODY UNION
// =============================================================================

// MessageBody is the closed set of message payloads. All variants live in
// this package; consumers switch exhaustively on Kind().
type MessageBody interface {
	Kind() MessageKind
	sealedBody()
}

// OpenAIBody is a plain chat message.
type OpenAIBody struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (OpenAIBody) Kind() MessageKind { return KindOpenAI }
func (OpenAIBody) sealedBody()       {}

// AgentGoalsBody records the goal list the agent was started with.
type AgentGoalsBody struct {
	Goals []string `json:"goals"`
}

func (AgentGoalsBody) Kind() MessageKind { return KindAgentGoals }
func (AgentGoalsBody) sealedBody()       {}

// AgentThoughts is the reasoning block inside a thoughts record.
type AgentThoughts struct {
	Text      string `json:"text"`
	Reasoning string `json:"reasoning"`
}

// AgentThoughtsBody records one agent planning step: the command it chose
// and the thoughts behind it.
type AgentThoughtsBody struct {
	Command  string        `json:"command"`
	Thoughts AgentThoughts `json:"thoughts"`
}

func (AgentThoughtsBody) Kind() MessageKind { return KindAgentThoughts }
func (AgentThoughtsBody) sealedBody()       {}

// AgentResultBody records the output of an executed agent command.
type AgentResultBody struct {
	Content string `json:"content"`
}

func (AgentResultBody) Kind() MessageKind { return KindAgentResult }
func (AgentResultBody) sealedBody()       {}

// UserFeedbackBody records free-form human feedback given to the agent.
type UserFeedbackBody struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (UserFeedbackBody) Kind() MessageKind { return KindUserFeedback }
func (UserFeedbackBody) sealedBody()       {}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single persisted record in a conversation.
type Message struct {
	ID             int64
	ConversationID int64
	TS             time.Time
	Body           MessageBody
}

// Kind returns the discriminator of the message body.
func (m Message) Kind() MessageKind { return m.Body.Kind() }

// Text returns the human-readable content of the message, regardless of
// kind. Used for previews and history assembly.
func (m Message) Text() string {
	switch b := m.Body.(type) {
	case OpenAIBody:
		return b.Content
	case AgentGoalsBody:
		out := ""
		for i, g := range b.Goals {
			if i > 0 {
				out += "\n"
			}
			out += g
		}
		return out
	case AgentThoughtsBody:
		return b.Thoughts.Text
	case AgentResultBody:
		return b.Content
	case UserFeedbackBody:
		return b.Content
	default:
		return ""
	}
}

// =============================================================================
// STORAGE ENCODING
// =============================================================================

// EncodeBody serializes a message body to its persisted (kind, payload)
// pair.
func EncodeBody(b MessageBody) (MessageKind, []byte, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	return b.Kind(), payload, nil
}

// DecodeBody reconstructs a message body from its persisted (kind, payload)
// pair. Unknown kinds are an error: the set of kinds is closed.
func DecodeBody(kind MessageKind, payload []byte) (MessageBody, error) {
	var (
		body MessageBody
		err  error
	)
	switch kind {
	case KindOpenAI:
		var b OpenAIBody
		err = json.Unmarshal(payload, &b)
		body = b
	case KindAgentGoals:
		var b AgentGoalsBody
		err = json.Unmarshal(payload, &b)
		body = b
	case KindAgentThoughts:
		var b AgentThoughtsBody
		err = json.Unmarshal(payload, &b)
		body = b
	case KindAgentResult:
		var b AgentResultBody
		err = json.Unmarshal(payload, &b)
		body = b
	case KindUserFeedback:
		var b UserFeedbackBody
		err = json.Unmarshal(payload, &b)
		body = b
	default:
		return nil, fmt.Errorf("unknown message kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s message body: %w", kind, err)
	}
	return body, nil
}
