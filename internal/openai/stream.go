// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// streamDataPrefix precedes every payload line of the SSE stream.
const streamDataPrefix = "data: "

// streamDone is the terminal payload line.
const streamDone = "[DONE]"

// DeltaCallback receives each non-empty content delta as it arrives.
type DeltaCallback func(delta string)

// StreamReader decodes an SSE completion stream line by line.
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
}

// NewStreamReader creates a stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Process consumes the stream, invoking the callback per content delta.
// Blocks until the stream finishes ("[DONE]" or EOF), the context is
// cancelled, or a line fails to parse. Nothing is consumed lazily beyond
// the line being handled, so the callback observes deltas in arrival order.
func (s *StreamReader) Process(ctx context.Context, callback DeltaCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return &CompletionError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
		}
		atEOF := err == io.EOF

		done, perr := s.processLine(line, callback)
		if perr != nil {
			return perr
		}
		if done || atEOF {
			return nil
		}
	}
}

// processLine handles a single line of the stream. Returns true on the
// terminal "[DONE]" payload.
func (s *StreamReader) processLine(line string, callback DeltaCallback) (bool, error) {
	payload := strings.TrimRight(line, "\r\n")
	payload = strings.TrimPrefix(payload, streamDataPrefix)

	// Blank keep-alive lines carry nothing.
	if payload == "" {
		return false, nil
	}
	if payload == streamDone {
		return true, nil
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return false, &CompletionError{Type: ErrTypeParse, Message: "malformed stream chunk", Cause: err}
	}

	for _, choice := range chunk.Choices {
		// Null content: role announcement or finish marker, no text.
		if choice.Delta.Content == nil {
			continue
		}
		delta := *choice.Delta.Content
		s.accumulator.WriteString(delta)
		if callback != nil {
			callback(delta)
		}
	}
	return false, nil
}

// Accumulated returns the concatenation of every delta processed so far.
// After Process returns nil this is the complete response text.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}
