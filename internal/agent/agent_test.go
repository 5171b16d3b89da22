// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestArgsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Missing file yields the start command.
	args, err := LoadArgs(dir)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	if args.Command != StartCommand {
		t.Errorf("Command = %q, want %q", args.Command, StartCommand)
	}

	saved := Args{Command: "write_to_file", Arguments: json.RawMessage(`{"filename":"a.txt"}`)}
	if err := SaveArgs(dir, saved); err != nil {
		t.Fatalf("SaveArgs: %v", err)
	}

	args, err = LoadArgs(dir)
	if err != nil {
		t.Fatalf("LoadArgs after save: %v", err)
	}
	if args.Command != "write_to_file" {
		t.Errorf("Command = %q", args.Command)
	}
	if string(args.Arguments) != `{"filename":"a.txt"}` {
		t.Errorf("Arguments = %s", args.Arguments)
	}
}

// TestSetOpenAIKeyDuringSteps swaps the forwarded key while steps are in
// flight, the way the config watcher does. Run under -race.
func TestSetOpenAIKeyDuringSteps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p stepPayload
		json.NewDecoder(r.Body).Decode(&p)
		if p.OpenAIKey != "sk-old" && p.OpenAIKey != "sk-new" {
			t.Errorf("openai_key = %q", p.OpenAIKey)
		}
		json.NewEncoder(w).Encode(StepResponse{Result: "ok", AssistantReply: "{}"})
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{Endpoint: srv.URL, OpenAIKey: "sk-old"})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := client.Step(context.Background(), StepRequest{Args: DefaultArgs()}); err != nil {
					t.Errorf("Step: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			client.SetOpenAIKey("sk-new")
			client.SetOpenAIKey("sk-old")
		}
	}()
	wg.Wait()
}

func TestStep(t *testing.T) {
	var got stepPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"command":         "list_files",
			"arguments":       map[string]string{"directory": "."},
			"result":          "Command start returned: ok",
			"assistant_reply": `{"thoughts":{"text":"begin","reasoning":"fresh run"},"command":{"name":"list_files","args":{"directory":"."}}}`,
		})
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{Endpoint: srv.URL, OpenAIKey: "sk-test"})
	resp, err := client.Step(context.Background(), StepRequest{
		Description: "research assistant",
		Goals:       []string{"find docs"},
		Args:        DefaultArgs(),
		AgentID:     "7",
		History: []HistoryEntry{
			{Role: "system", Content: "Command start returned: ok"},
		},
	})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	if got.Command != StartCommand {
		t.Errorf("sent command = %q", got.Command)
	}
	if got.AIName != "GodmodeGPT" {
		t.Errorf("ai_name = %q", got.AIName)
	}
	if got.AIDescription != "research assistant" {
		t.Errorf("ai_description = %q", got.AIDescription)
	}
	if got.OpenAIKey != "sk-test" {
		t.Errorf("openai_key = %q", got.OpenAIKey)
	}
	if got.AgentID != "7" {
		t.Errorf("agent_id = %q", got.AgentID)
	}
	if len(got.MessageHistory) != 1 {
		t.Errorf("history length = %d", len(got.MessageHistory))
	}

	if resp.Result != "Command start returned: ok" {
		t.Errorf("Result = %q", resp.Result)
	}
	next := resp.NextArgs()
	if next.Command != "list_files" {
		t.Errorf("next command = %q", next.Command)
	}
}

func TestStepHumanFeedbackOverridesCommand(t *testing.T) {
	var got stepPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(StepResponse{})
	}))
	defer srv.Close()

	feedback := "please stop doing that"
	client := NewClient(&ClientConfig{Endpoint: srv.URL})
	_, err := client.Step(context.Background(), StepRequest{
		Args:          Args{Command: "google", Arguments: json.RawMessage(`{"query":"x"}`)},
		HumanFeedback: &feedback,
	})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got.Command != "human_feedback" {
		t.Errorf("command = %q, want human_feedback", got.Command)
	}
	var sentArgs string
	if err := json.Unmarshal(got.Arguments, &sentArgs); err != nil || sentArgs != feedback {
		t.Errorf("arguments = %s", got.Arguments)
	}
}

func TestStepHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{Endpoint: srv.URL})
	if _, err := client.Step(context.Background(), StepRequest{Args: DefaultArgs()}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseReply(t *testing.T) {
	t.Run("command object", func(t *testing.T) {
		reply := `{"thoughts":{"text":"t","reasoning":"r"},"command":{"name":"google","args":{"query":"x"}}}`
		body, err := ParseReply(reply)
		if err != nil {
			t.Fatalf("ParseReply: %v", err)
		}
		if body.Command != "google" {
			t.Errorf("Command = %q", body.Command)
		}
		if body.Thoughts.Text != "t" || body.Thoughts.Reasoning != "r" {
			t.Errorf("Thoughts = %+v", body.Thoughts)
		}
	})

	t.Run("command string", func(t *testing.T) {
		body, err := ParseReply(`{"thoughts":{"text":"t"},"command":"human_feedback"}`)
		if err != nil {
			t.Fatalf("ParseReply: %v", err)
		}
		if body.Command != "human_feedback" {
			t.Errorf("Command = %q", body.Command)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := ParseReply("not json"); err == nil {
			t.Fatal("expected error")
		}
	})
}
