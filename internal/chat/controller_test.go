// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jeranaias/panechat/internal/agent"
	"github.com/jeranaias/panechat/internal/config"
	"github.com/jeranaias/panechat/internal/model"
	"github.com/jeranaias/panechat/internal/openai"
	"github.com/jeranaias/panechat/internal/storage"
)

// testEnv bundles a controller over a temp store and a fake completion
// server.
type testEnv struct {
	store *storage.Store
	ctrl  *Controller

	mu       sync.Mutex
	requests []openai.ChatRequest
}

// newTestEnv builds the environment. respond picks the SSE deltas for each
// completion request.
func newTestEnv(t *testing.T, respond func(req openai.ChatRequest) []string) *testEnv {
	t.Helper()

	env := &testEnv{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		env.mu.Lock()
		env.requests = append(env.requests, req)
		env.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range respond(req) {
			payload, _ := json.Marshal(delta)
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%s}}]}\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)

	store, err := storage.Open(filepath.Join(t.TempDir(), "panechat.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.API.OpenAIKey = "sk-test"
	cfg.API.BaseURL = srv.URL

	env.store = store
	env.ctrl = NewController(cfg, Options{
		Store:       store,
		Completions: openai.NewClient(&openai.ClientConfig{BaseURL: srv.URL, APIKey: "sk-test"}),
		DataDir:     t.TempDir(),
	})
	return env
}

// chatRequests returns the captured non-title completion requests.
func (e *testEnv) chatRequests() []openai.ChatRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []openai.ChatRequest
	for _, r := range e.requests {
		if r.Model != titleModel {
			out = append(out, r)
		}
	}
	return out
}

func TestSendMessageEndToEnd(t *testing.T) {
	env := newTestEnv(t, func(req openai.ChatRequest) []string {
		if req.Model == titleModel {
			return []string{"Fun", " title."}
		}
		return []string{"Hel", "lo", " world"}
	})

	convID, err := env.ctrl.StartNewConversation(nil)
	if err != nil {
		t.Fatalf("StartNewConversation: %v", err)
	}
	conv, _ := env.store.GetConversation(convID)
	if conv.TitleRequested() {
		t.Fatal("fresh conversation already has a title state")
	}

	if err := env.ctrl.SendMessage(context.Background(), convID, "hi there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs, err := env.store.ListMessages(convID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages, want 2", len(msgs))
	}
	if msgs[0].Text() != "hi there" {
		t.Errorf("user message = %q", msgs[0].Text())
	}
	if msgs[1].Text() != "Hello world" {
		t.Errorf("assistant message = %q", msgs[1].Text())
	}

	// Buffer entry evicted after the final write.
	if snap := env.ctrl.Buffer().Snapshot(convID); snap != nil {
		t.Errorf("buffer not evicted: %v", snap)
	}

	// The title run settles to the cleaned title.
	env.ctrl.titleWG.Wait()
	conv, _ = env.store.GetConversation(convID)
	if !conv.HasTitle() || *conv.Title != "Fun title" {
		t.Errorf("title = %v, want %q", conv.Title, "Fun title")
	}

	// Request shape: default provider, full budget.
	chats := env.chatRequests()
	if len(chats) != 1 {
		t.Fatalf("captured %d chat requests", len(chats))
	}
	req := chats[0]
	if req.Model != model.DefaultModel || req.Temperature != model.DefaultTemperature {
		t.Errorf("request = %+v", req)
	}
	if req.MaxTokens != 1000 || !req.Stream {
		t.Errorf("request = %+v", req)
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != model.DefaultSystemPrompt {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if last := req.Messages[len(req.Messages)-1]; last.Content != "hi there" {
		t.Errorf("last message = %+v", last)
	}
}

func TestSendMessageHistoryWindow(t *testing.T) {
	env := newTestEnv(t, func(openai.ChatRequest) []string { return []string{"ok"} })

	convID, _ := env.ctrl.StartNewConversation(nil)
	// Pre-set the title so no titling run fires.
	if err := env.store.SetConversationTitle(convID, "t"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 12; i++ {
		env.store.AddMessage(convID, model.OpenAIBody{Role: model.RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}
	// Agent records never replay into chat requests.
	env.store.AddMessage(convID, model.AgentResultBody{Content: "tool output"})

	if err := env.ctrl.SendMessage(context.Background(), convID, "final"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	req := env.chatRequests()[0]
	// 14 stored at capture time; window of 10 covers msg-4..msg-11, the
	// skipped agent record, and "final". Plus the system prompt.
	if len(req.Messages) != 10 {
		t.Fatalf("request carries %d messages, want 10: %+v", len(req.Messages), req.Messages)
	}
	if req.Messages[1].Content != "msg-4" {
		t.Errorf("first window message = %q, want msg-4", req.Messages[1].Content)
	}
	if req.Messages[9].Content != "final" {
		t.Errorf("last window message = %q", req.Messages[9].Content)
	}
	for _, m := range req.Messages {
		if m.Content == "tool output" {
			t.Error("agent record leaked into chat history")
		}
	}
}

func TestSendMessagePresetProvider(t *testing.T) {
	env := newTestEnv(t, func(openai.ChatRequest) []string { return []string{"ok"} })

	presetID, err := env.store.AddPreset(model.Preset{
		Title: "Pirate",
		Providers: []model.Provider{
			model.OpenAIProvider{Model: "gpt-3.5-turbo", SystemPrompt: "talk like a pirate", Temperature: 0.9},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	convID, _ := env.ctrl.StartNewConversation(&presetID)
	env.store.SetConversationTitle(convID, "t")

	if err := env.ctrl.SendMessage(context.Background(), convID, "ahoy"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	req := env.chatRequests()[0]
	if req.Model != "gpt-3.5-turbo" || req.Temperature != 0.9 {
		t.Errorf("request = %+v", req)
	}
	if req.Messages[0].Content != "talk like a pirate" {
		t.Errorf("system prompt = %q", req.Messages[0].Content)
	}
}

func TestSendMessageNoAPIKey(t *testing.T) {
	env := newTestEnv(t, func(openai.ChatRequest) []string { return nil })
	env.ctrl.SetConfig(config.Default()) // no key

	convID, _ := env.ctrl.StartNewConversation(nil)
	err := env.ctrl.SendMessage(context.Background(), convID, "hi")
	if !errors.Is(err, config.ErrNoAPIKey) {
		t.Fatalf("error = %v, want ErrNoAPIKey", err)
	}

	// Nothing persisted: the key gate runs before any write.
	msgs, _ := env.store.ListMessages(convID)
	if len(msgs) != 0 {
		t.Errorf("stored %d messages, want 0", len(msgs))
	}
}

func TestSendMessageStreamErrorKeepsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\n")
		fmt.Fprint(w, "data: {broken\n\n")
	}))
	defer srv.Close()

	store, err := storage.Open(filepath.Join(t.TempDir(), "panechat.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := config.Default()
	cfg.API.OpenAIKey = "sk-test"
	ctrl := NewController(cfg, Options{
		Store:       store,
		Completions: openai.NewClient(&openai.ClientConfig{BaseURL: srv.URL, APIKey: "sk-test"}),
		DataDir:     t.TempDir(),
	})

	convID, _ := ctrl.StartNewConversation(nil)
	store.SetConversationTitle(convID, "t")

	err = ctrl.SendMessage(context.Background(), convID, "hi")
	var ce *openai.CompletionError
	if !errors.As(err, &ce) || ce.Type != openai.ErrTypeParse {
		t.Fatalf("error = %v, want parse CompletionError", err)
	}

	// No rollback: user message and empty assistant row stay, and the
	// buffer keeps what streamed before the failure.
	msgs, _ := store.ListMessages(convID)
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages, want 2", len(msgs))
	}
	if msgs[1].Text() != "" {
		t.Errorf("assistant row = %q, want empty", msgs[1].Text())
	}
	if got, _ := ctrl.Buffer().Get(convID, msgs[1].ID); got != "par" {
		t.Errorf("buffered partial = %q, want %q", got, "par")
	}
}

func TestReapIfEmpty(t *testing.T) {
	env := newTestEnv(t, func(openai.ChatRequest) []string { return nil })

	emptyID, _ := env.ctrl.StartNewConversation(nil)
	fullID, _ := env.ctrl.StartNewConversation(nil)
	env.store.AddMessage(fullID, model.OpenAIBody{Role: model.RoleUser, Content: "keep me"})

	if err := env.ctrl.ReapIfEmpty(emptyID); err != nil {
		t.Fatalf("ReapIfEmpty: %v", err)
	}
	if _, err := env.store.GetConversation(emptyID); !errors.Is(err, storage.ErrNotFound) {
		t.Error("empty conversation survived reap")
	}

	if err := env.ctrl.ReapIfEmpty(fullID); err != nil {
		t.Fatalf("ReapIfEmpty: %v", err)
	}
	if _, err := env.store.GetConversation(fullID); err != nil {
		t.Error("non-empty conversation reaped")
	}
}

// agentPayload mirrors the agent API request body.
type agentPayload struct {
	Command        string               `json:"command"`
	Arguments      json.RawMessage      `json:"arguments"`
	AIDescription  string               `json:"ai_description"`
	AIGoals        []string             `json:"ai_goals"`
	AgentID        string               `json:"agent_id"`
	MessageHistory []agent.HistoryEntry `json:"message_history"`
}

func TestSendAgentMessage(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []agentPayload
	)
	agentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p agentPayload
		json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"command":         "list_files",
			"arguments":       map[string]string{"directory": "."},
			"result":          "Command returned: []",
			"assistant_reply": `{"thoughts":{"text":"scan the directory","reasoning":"need a baseline"},"command":{"name":"list_files","args":{"directory":"."}}}`,
		})
	}))
	defer agentSrv.Close()

	store, err := storage.Open(filepath.Join(t.TempDir(), "panechat.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := config.Default()
	cfg.API.OpenAIKey = "sk-test"
	dataDir := t.TempDir()
	ctrl := NewController(cfg, Options{
		Store:       store,
		Completions: openai.NewClient(&openai.ClientConfig{BaseURL: "http://127.0.0.1:1"}),
		Agent:       agent.NewClient(&agent.ClientConfig{Endpoint: agentSrv.URL, OpenAIKey: "sk-test"}),
		DataDir:     dataDir,
	})

	presetID, _ := store.AddPreset(model.Preset{
		Title:     "Researcher",
		Providers: []model.Provider{model.AgentProvider{Description: "research assistant"}},
	})
	convID, _ := ctrl.StartNewConversation(&presetID)
	store.SetConversationTitle(convID, "t")

	// First step: goals come from the feedback text.
	feedback := "find the docs\n\nsummarize them"
	if err := ctrl.SendAgentMessage(context.Background(), convID, &feedback); err != nil {
		t.Fatalf("SendAgentMessage: %v", err)
	}

	msgs, _ := store.ListMessages(convID)
	if len(msgs) != 3 {
		t.Fatalf("stored %d messages, want goals+result+thoughts", len(msgs))
	}
	goals, ok := msgs[0].Body.(model.AgentGoalsBody)
	if !ok || len(goals.Goals) != 2 || goals.Goals[0] != "find the docs" {
		t.Errorf("goals = %#v", msgs[0].Body)
	}
	if msgs[1].Kind() != model.KindAgentResult || msgs[2].Kind() != model.KindAgentThoughts {
		t.Errorf("kinds = %s, %s", msgs[1].Kind(), msgs[2].Kind())
	}

	p := payloads[0]
	if p.AIDescription != "research assistant" {
		t.Errorf("ai_description = %q", p.AIDescription)
	}
	if p.Command != agent.StartCommand {
		t.Errorf("first step command = %q", p.Command)
	}
	if len(p.MessageHistory) != 0 {
		t.Errorf("first step replayed history: %+v", p.MessageHistory)
	}

	// Second step: no feedback, history replays thoughts and result only.
	if err := ctrl.SendAgentMessage(context.Background(), convID, nil); err != nil {
		t.Fatalf("second SendAgentMessage: %v", err)
	}

	p = payloads[1]
	// Saved args from step one take over.
	if p.Command != "list_files" {
		t.Errorf("second step command = %q", p.Command)
	}
	if len(p.AIGoals) != 2 {
		t.Errorf("ai_goals = %v", p.AIGoals)
	}
	// Stored order is result then thoughts, so the replay is the system
	// result line followed by the instruction/answer pair.
	if len(p.MessageHistory) != 3 {
		t.Fatalf("history = %+v", p.MessageHistory)
	}
	if p.MessageHistory[0].Role != "system" || p.MessageHistory[0].Content != "Command returned: []" {
		t.Errorf("history[0] = %+v", p.MessageHistory[0])
	}
	if p.MessageHistory[1].Role != "user" || p.MessageHistory[2].Role != "assistant" {
		t.Errorf("history = %+v", p.MessageHistory)
	}
	// Goals and feedback records never replay.
	for _, h := range p.MessageHistory {
		if h.Content == "find the docs" {
			t.Error("goals leaked into history")
		}
	}

	msgs, _ = store.ListMessages(convID)
	if len(msgs) != 5 {
		t.Errorf("stored %d messages after second step, want 5", len(msgs))
	}
}

func TestSendAgentMessageRequiresAgentPreset(t *testing.T) {
	env := newTestEnv(t, func(openai.ChatRequest) []string { return nil })
	env.ctrl.agent = agent.NewClient(&agent.ClientConfig{Endpoint: "http://127.0.0.1:1"})

	convID, _ := env.ctrl.StartNewConversation(nil)
	env.store.SetConversationTitle(convID, "t")

	if err := env.ctrl.SendAgentMessage(context.Background(), convID, nil); !errors.Is(err, ErrNoAgentPreset) {
		t.Errorf("error = %v, want ErrNoAgentPreset", err)
	}
}
