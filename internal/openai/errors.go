// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

// =============================================================================
// ERROR TYPES
// =============================================================================

// CompletionError represents a failure of a completion request.
type CompletionError struct {
	Type       ErrorType
	StatusCode int // Set for ErrTypeHTTP
	Message    string
	Cause      error
}

func (e *CompletionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CompletionError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes completion errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeConnection: the request never reached the server.
	ErrTypeConnection
	// ErrTypeHTTP: the server answered outside the 2xx range.
	ErrTypeHTTP
	// ErrTypeParse: the stream contained a line that is not valid JSON.
	ErrTypeParse
	// ErrTypeInvalidResponse: a well-formed response missing expected fields.
	ErrTypeInvalidResponse
)
