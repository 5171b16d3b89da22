// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestBodyRoundTrip(t *testing.T) {
	bodies := []MessageBody{
		OpenAIBody{Role: RoleUser, Content: "hello"},
		AgentGoalsBody{Goals: []string{"find docs", "summarize"}},
		AgentThoughtsBody{
			Command:  "browse",
			Thoughts: AgentThoughts{Text: "need sources", Reasoning: "no data yet"},
		},
		AgentResultBody{Content: "done"},
		UserFeedbackBody{Role: RoleUser, Content: "looks wrong"},
	}

	for _, b := range bodies {
		t.Run(string(b.Kind()), func(t *testing.T) {
			kind, payload, err := EncodeBody(b)
			if err != nil {
				t.Fatalf("EncodeBody: %v", err)
			}
			if kind != b.Kind() {
				t.Errorf("kind = %q, want %q", kind, b.Kind())
			}
			got, err := DecodeBody(kind, payload)
			if err != nil {
				t.Fatalf("DecodeBody: %v", err)
			}
			if got.Kind() != b.Kind() {
				t.Errorf("decoded kind = %q, want %q", got.Kind(), b.Kind())
			}
		})
	}
}

func TestDecodeBodyUnknownKind(t *testing.T) {
	if _, err := DecodeBody("claude", []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestMessageText(t *testing.T) {
	tests := []struct {
		name string
		body MessageBody
		want string
	}{
		{"chat", OpenAIBody{Role: RoleAssistant, Content: "hi"}, "hi"},
		{"goals", AgentGoalsBody{Goals: []string{"a", "b"}}, "a\nb"},
		{"thoughts", AgentThoughtsBody{Thoughts: AgentThoughts{Text: "plan"}}, "plan"},
		{"result", AgentResultBody{Content: "out"}, "out"},
		{"feedback", UserFeedbackBody{Role: RoleUser, Content: "nope"}, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Message{Body: tt.body}
			if got := m.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversationTitleStates(t *testing.T) {
	var c Conversation
	if c.TitleRequested() || c.HasTitle() {
		t.Error("zero conversation should have no title state")
	}
	if c.DisplayTitle() != "New chat" {
		t.Errorf("DisplayTitle = %q", c.DisplayTitle())
	}

	empty := ""
	c.Title = &empty
	if !c.TitleRequested() || c.HasTitle() {
		t.Error("empty title should mean titling in progress")
	}
	if c.DisplayTitle() != "New chat" {
		t.Errorf("DisplayTitle during titling = %q", c.DisplayTitle())
	}

	done := "Robot ponders lunch plans"
	c.Title = &done
	if !c.HasTitle() {
		t.Error("non-empty title should be final")
	}
	if c.DisplayTitle() != done {
		t.Errorf("DisplayTitle = %q", c.DisplayTitle())
	}
}

func TestProviderRoundTrip(t *testing.T) {
	providers := []Provider{
		OpenAIProvider{Model: "gpt-4", SystemPrompt: "be brief", Temperature: 0.7},
		AgentProvider{Description: "research assistant"},
	}

	data, err := EncodeProviders(providers)
	if err != nil {
		t.Fatalf("EncodeProviders: %v", err)
	}
	if !strings.Contains(string(data), `"type":"open-ai"`) {
		t.Errorf("missing open-ai tag: %s", data)
	}
	if !strings.Contains(string(data), `"type":"godmode"`) {
		t.Errorf("missing godmode tag: %s", data)
	}

	got, err := DecodeProviders(data)
	if err != nil {
		t.Fatalf("DecodeProviders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d providers, want 2", len(got))
	}
	oai, ok := got[0].(OpenAIProvider)
	if !ok {
		t.Fatalf("first provider is %T, want OpenAIProvider", got[0])
	}
	if oai.Model != "gpt-4" || oai.Temperature != 0.7 {
		t.Errorf("decoded OpenAIProvider = %+v", oai)
	}
	agent, ok := got[1].(AgentProvider)
	if !ok {
		t.Fatalf("second provider is %T, want AgentProvider", got[1])
	}
	if agent.Description != "research assistant" {
		t.Errorf("decoded AgentProvider = %+v", agent)
	}
}

func TestDecodeProvidersUnknownKind(t *testing.T) {
	if _, err := DecodeProviders([]byte(`[{"type":"anthropic"}]`)); err == nil {
		t.Fatal("expected error for unknown provider kind")
	}
}

func TestActiveProviderFallsBackToDefault(t *testing.T) {
	var p Preset
	prov := p.ActiveProvider()
	oai, ok := prov.(OpenAIProvider)
	if !ok {
		t.Fatalf("default provider is %T", prov)
	}
	if oai.Model != DefaultModel {
		t.Errorf("model = %q, want %q", oai.Model, DefaultModel)
	}
	if oai.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", oai.Temperature, DefaultTemperature)
	}

	p.Providers = []Provider{AgentProvider{Description: "x"}}
	if _, ok := p.ActiveProvider().(AgentProvider); !ok {
		t.Error("configured provider not returned")
	}
}
