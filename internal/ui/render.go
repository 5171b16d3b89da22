// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"encoding/json"
	"strings"

	"github.com/jeranaias/panechat/internal/model"
	"github.com/jeranaias/panechat/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// renderMessages renders a conversation transcript for a pane viewport.
func renderMessages(theme *styles.Theme, md *markdownRenderer, messages []model.Message) string {
	var out strings.Builder
	for i, msg := range messages {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(renderMessage(theme, md, msg))
		out.WriteString("\n")
	}
	return out.String()
}

// renderMessage renders one message. Every body kind gets a case; a new
// kind that reaches here unstyled is a bug in this switch.
func renderMessage(theme *styles.Theme, md *markdownRenderer, msg model.Message) string {
	switch body := msg.Body.(type) {
	case model.OpenAIBody:
		return renderChat(theme, md, body)
	case model.AgentGoalsBody:
		var out strings.Builder
		out.WriteString(theme.AgentLabel.Render("Goals"))
		for _, goal := range body.Goals {
			out.WriteString("\n  • " + goal)
		}
		return out.String()
	case model.AgentThoughtsBody:
		return renderThoughts(theme, body)
	case model.AgentResultBody:
		return theme.SystemLabel.Render(body.Content)
	case model.UserFeedbackBody:
		return theme.UserLabel.Render("You") + "\n" + body.Content
	}
	return ""
}

func renderChat(theme *styles.Theme, md *markdownRenderer, body model.OpenAIBody) string {
	switch body.Role {
	case model.RoleUser:
		return theme.UserLabel.Render("You") + "\n" + body.Content
	case model.RoleAssistant:
		text := md.Render(body.Content)
		if body.Content == "" {
			text = theme.StreamCursor.Render("▍")
		}
		return theme.AssistantLabel.Render("Assistant") + "\n" + text
	default:
		return theme.SystemLabel.Render(body.Content)
	}
}

// renderThoughts renders an agent step: the thought line, the reasoning,
// and the issued command as highlighted JSON.
func renderThoughts(theme *styles.Theme, body model.AgentThoughtsBody) string {
	var out strings.Builder
	out.WriteString(theme.AgentLabel.Render("Agent"))
	if body.Thoughts.Text != "" {
		out.WriteString("\n" + body.Thoughts.Text)
	}
	if body.Thoughts.Reasoning != "" {
		out.WriteString("\n" + theme.AgentReasoning.Render(body.Thoughts.Reasoning))
	}
	if body.Command != "" {
		record, err := json.MarshalIndent(map[string]string{"command": body.Command}, "", "  ")
		if err == nil {
			out.WriteString("\n" + highlightCode(string(record), "json"))
		}
	}
	return strings.TrimRight(out.String(), "\n")
}
