// panechat TUI - multi-pane streaming chat for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/panechat/internal/agent"
	"github.com/jeranaias/panechat/internal/chat"
	"github.com/jeranaias/panechat/internal/config"
	"github.com/jeranaias/panechat/internal/logging"
	"github.com/jeranaias/panechat/internal/openai"
	"github.com/jeranaias/panechat/internal/panes"
	"github.com/jeranaias/panechat/internal/shortcut"
	"github.com/jeranaias/panechat/internal/storage"
	"github.com/jeranaias/panechat/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// sendToProgram forwards a message to the running program, dropping it when
// the program isn't up yet.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.panechat/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("panechat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// ==========================================================================
	// Configuration
	// ==========================================================================
	var err error
	if configPath == "" {
		if configPath, err = config.Path(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ==========================================================================
	// Logging
	// ==========================================================================
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	if err := logging.Init(logPath, cfg.Log.Level); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()
	log := logging.For("main")
	log.Info().Str("version", Version).Msg("panechat starting")

	// ==========================================================================
	// Storage
	// ==========================================================================
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	store, err := storage.Open(filepath.Join(dataDir, "panechat.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	// ==========================================================================
	// Clients and controller
	// ==========================================================================
	completions := openai.NewClient(&openai.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.OpenAIKey,
	})

	var agentClient *agent.Client
	if cfg.Agent.Endpoint != "" {
		agentClient = agent.NewClient(&agent.ClientConfig{
			Endpoint:  cfg.Agent.Endpoint,
			OpenAIKey: cfg.API.OpenAIKey,
		})
	}

	ctrl := chat.NewController(cfg, chat.Options{
		Store:       store,
		Completions: completions,
		Agent:       agentClient,
		DataDir:     dataDir,
		OnUpdate: func(conversationID int64) {
			sendToProgram(ui.ConversationUpdatedMsg{ConversationID: conversationID})
		},
	})

	paneSet := panes.NewSet(ctrl.ReapIfEmpty)

	registry := shortcut.NewRegistry()
	presets, err := store.ListPresets()
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	registry.Rebuild(presets)

	// ==========================================================================
	// Config hot-reload
	// ==========================================================================
	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		ctrl.SetConfig(next)
		sendToProgram(ui.ConfigReloadedMsg{Config: next})
	})
	if err != nil {
		log.Warn().Err(err).Msg("config watcher unavailable")
	} else {
		if err := watcher.Watch(); err != nil {
			log.Warn().Err(err).Msg("config watch failed")
		}
		defer watcher.Close()
	}

	// ==========================================================================
	// Program
	// ==========================================================================
	m := ui.NewModel(ui.Options{
		Config:   cfg,
		Store:    store,
		Ctrl:     ctrl,
		Panes:    paneSet,
		Registry: registry,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	log.Info().Msg("panechat exiting")
	return nil
}
