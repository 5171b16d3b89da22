// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatMessage is one entry of the request message list.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

// =============================================================================
// STREAM WIRE TYPES
// =============================================================================

// chunkDelta is the incremental payload inside a stream chunk. Content is a
// pointer because the first and last chunks of a stream carry a null
// content alongside role/finish metadata.
type chunkDelta struct {
	Content *string `json:"content"`
}

type chunkChoice struct {
	Delta chunkDelta `json:"delta"`
}

// streamChunk is one decoded "data:" line.
type streamChunk struct {
	Choices []chunkChoice `json:"choices"`
}
