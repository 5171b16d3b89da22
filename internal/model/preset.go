// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// PROVIDER UNION
// =============================================================================

// ProviderKind discriminates the provider union. The string values are
// persisted, so they must never change.
type ProviderKind string

const (
	ProviderOpenAI ProviderKind = "open-ai"
	ProviderAgent  ProviderKind = "godmode"
)

// Provider is the closed set of chat backends a preset can target.
type Provider interface {
	Kind() ProviderKind
	sealedProvider()
}

// OpenAIProvider sends conversation history to a chat-completion API.
type OpenAIProvider struct {
	Model        string  `json:"model"`
	SystemPrompt string  `json:"systemPrompt"`
	Temperature  float64 `json:"temperature"`
}

func (OpenAIProvider) Kind() ProviderKind { return ProviderOpenAI }
func (OpenAIProvider) sealedProvider()    {}

// AgentProvider runs the autonomous agent with a task description.
type AgentProvider struct {
	Description string `json:"description"`
}

func (AgentProvider) Kind() ProviderKind { return ProviderAgent }
func (AgentProvider) sealedProvider()    {}

// Defaults for conversations with no preset.
const (
	DefaultModel        = "gpt-4"
	DefaultSystemPrompt = "You are a helpful assistant called ChatGPT."
	DefaultTemperature  = 0.3
)

// DefaultProvider returns the provider used when a conversation has no
// preset.
func DefaultProvider() OpenAIProvider {
	return OpenAIProvider{
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
	}
}

// =============================================================================
// PRESET
// =============================================================================

// Preset is a reusable chat configuration. Shortcut is nil when the preset
// has no key binding; the single-space string is reserved for the default
// preset binding.
type Preset struct {
	ID        int64
	TS        time.Time
	Title     string
	Shortcut  *string
	Providers []Provider
}

// ActiveProvider returns the provider a send should use: the first
// configured provider, or the default when the preset has none.
func (p Preset) ActiveProvider() Provider {
	if len(p.Providers) > 0 {
		return p.Providers[0]
	}
	return DefaultProvider()
}

// =============================================================================
// STORAGE ENCODING
// =============================================================================

// providerEnvelope is the persisted form of one provider: the kind tag
// alongside the variant's own fields.
type providerEnvelope struct {
	Type         ProviderKind `json:"type"`
	Model        string       `json:"model,omitempty"`
	SystemPrompt string       `json:"systemPrompt,omitempty"`
	Temperature  float64      `json:"temperature,omitempty"`
	Description  string       `json:"description,omitempty"`
}

// EncodeProviders serializes a provider list for storage.
func EncodeProviders(providers []Provider) ([]byte, error) {
	envelopes := make([]providerEnvelope, 0, len(providers))
	for _, p := range providers {
		switch v := p.(type) {
		case OpenAIProvider:
			envelopes = append(envelopes, providerEnvelope{
				Type:         ProviderOpenAI,
				Model:        v.Model,
				SystemPrompt: v.SystemPrompt,
				Temperature:  v.Temperature,
			})
		case AgentProvider:
			envelopes = append(envelopes, providerEnvelope{
				Type:        ProviderAgent,
				Description: v.Description,
			})
		default:
			return nil, fmt.Errorf("unknown provider kind %q", p.Kind())
		}
	}
	data, err := json.Marshal(envelopes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode providers: %w", err)
	}
	return data, nil
}

// DecodeProviders reconstructs a provider list from storage. Unknown kinds
// are an error: the set of providers is closed.
func DecodeProviders(data []byte) ([]Provider, error) {
	var envelopes []providerEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	providers := make([]Provider, 0, len(envelopes))
	for _, e := range envelopes {
		switch e.Type {
		case ProviderOpenAI:
			providers = append(providers, OpenAIProvider{
				Model:        e.Model,
				SystemPrompt: e.SystemPrompt,
				Temperature:  e.Temperature,
			})
		case ProviderAgent:
			providers = append(providers, AgentProvider{
				Description: e.Description,
			})
		default:
			return nil, fmt.Errorf("unknown provider kind %q", e.Type)
		}
	}
	return providers, nil
}
