// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the completion client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// ConnectTimeout bounds connection establishment. The response body is
	// never subject to a timeout: streams are open-ended and cancellation
	// is the caller's context.
	ConnectTimeout time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        "https://api.openai.com/v1",
		ConnectTimeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client issues chat completion requests. Thread-safe for concurrent use;
// the conversation controller runs one Client across every pane.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	// keyMu guards apiKey: the config watcher swaps it while streams are
	// in flight.
	keyMu  sync.RWMutex
	apiKey string
}

// NewClient creates a completion client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = config.ConnectTimeout

	return &Client{
		config: config,
		// No overall timeout: it would cut off long streams mid-response.
		httpClient: &http.Client{Transport: transport},
		apiKey:     config.APIKey,
	}
}

// SetAPIKey swaps the bearer token, used when the config file is reloaded.
func (c *Client) SetAPIKey(key string) {
	c.keyMu.Lock()
	c.apiKey = key
	c.keyMu.Unlock()
}

func (c *Client) bearerToken() string {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.apiKey
}

// ChatStream sends a streaming chat completion request, invoking onDelta
// for each content token. Returns the full concatenated response text.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onDelta DeltaCallback) (string, error) {
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return "", &CompletionError{Type: ErrTypeUnknown, Message: "failed to encode request", Cause: err}
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &CompletionError{Type: ErrTypeUnknown, Message: "failed to build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.bearerToken())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &CompletionError{Type: ErrTypeConnection, Message: "completion request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httpError(resp)
	}

	reader := NewStreamReader(resp.Body)
	if err := reader.Process(ctx, onDelta); err != nil {
		return "", err
	}
	return reader.Accumulated(), nil
}

// httpError builds a CompletionError from a non-2xx response, salvaging the
// server's own error message when the body carries one.
func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := "completion request returned status " + strconv.Itoa(resp.StatusCode)
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		message += ": " + apiErr.Error.Message
	}

	return &CompletionError{
		Type:       ErrTypeHTTP,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
