// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "panechat.log")

	if err := Init(path, "debug"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	log := For("storage")
	log.Info().Str("op", "add").Msg("message persisted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "message persisted") {
		t.Errorf("log output missing message: %q", out)
	}
	if !strings.Contains(out, `"component":"storage"`) {
		t.Errorf("log output missing component field: %q", out)
	}
}

func TestInitLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panechat.log")

	if err := Init(path, "error"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	log := L()
	log.Info().Msg("suppressed")
	log.Error().Msg("kept")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "suppressed") {
		t.Error("info line written despite error level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("error line missing")
	}
}

func TestUninitializedLoggerIsNoop(t *testing.T) {
	Close()
	// Must not panic or write anywhere.
	log := L()
	log.Info().Msg("nowhere")
	comp := For("x")
	comp.Error().Msg("nowhere")
}
