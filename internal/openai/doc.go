// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai provides the HTTP client for OpenAI-compatible chat
// completion APIs.
//
// # Key Types
//
//   - Client: issues streaming chat completion requests
//   - StreamReader: decodes the SSE "data: {json}" token stream
//   - CompletionError: typed error for connection, HTTP, and parse failures
//
// The stream protocol: each line is "data: " followed by a completion chunk
// as JSON, the literal "[DONE]" line ends the stream, blank lines are
// keep-alives. A chunk whose delta content is null (role announcements,
// finish markers) carries no text and is skipped. Malformed JSON aborts the
// stream with a CompletionError.
package openai
