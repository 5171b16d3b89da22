// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/panechat/internal/util"
)

// ErrNoAPIKey is returned when an operation needs the OpenAI API key and
// none is configured.
var ErrNoAPIKey = errors.New("no OpenAI API key configured (set api.openai_key or PANECHAT_OPENAI_KEY)")

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete panechat configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	Defaults DefaultsConfig `toml:"defaults"`
	Agent    AgentConfig    `toml:"agent"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains completion API settings.
type APIConfig struct {
	// OpenAIKey is the bearer token for the completion API.
	OpenAIKey string `toml:"openai_key"`
	// BaseURL is the completion API root. Point it at any
	// OpenAI-compatible server.
	BaseURL string `toml:"base_url"`
}

// DefaultsConfig contains per-send defaults used when a conversation has no
// preset override.
type DefaultsConfig struct {
	// MaxTokens is the completion budget for chat sends.
	MaxTokens int `toml:"max_tokens"`
	// TitleMaxTokens is the completion budget for auto-title requests.
	TitleMaxTokens int `toml:"title_max_tokens"`
	// HistoryWindow is how many trailing messages are replayed per send.
	HistoryWindow int `toml:"history_window"`
}

// AgentConfig contains agent-mode settings.
type AgentConfig struct {
	// Endpoint is the agent API base URL. Agent mode is disabled when
	// empty.
	Endpoint string `toml:"endpoint"`
}

// UIConfig contains display settings.
type UIConfig struct {
	// Theme selects the glamour markdown style: "auto", "dark", "light".
	Theme string `toml:"theme"`
	// PaneTitleWidth caps the rendered width of pane titles.
	PaneTitleWidth int `toml:"pane_title_width"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is a zerolog level name. Empty means info.
	Level string `toml:"level"`
	// Path overrides the default log file location.
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a config with all defaults set.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Defaults: DefaultsConfig{
			MaxTokens:      1000,
			TitleMaxTokens: 20,
			HistoryWindow:  10,
		},
		UI: UIConfig{
			Theme:          "auto",
			PaneTitleWidth: 40,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// fillDefaults replaces zero values with defaults after a load.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = def.API.BaseURL
	}
	if cfg.Defaults.MaxTokens == 0 {
		cfg.Defaults.MaxTokens = def.Defaults.MaxTokens
	}
	if cfg.Defaults.TitleMaxTokens == 0 {
		cfg.Defaults.TitleMaxTokens = def.Defaults.TitleMaxTokens
	}
	if cfg.Defaults.HistoryWindow == 0 {
		cfg.Defaults.HistoryWindow = def.Defaults.HistoryWindow
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = def.UI.Theme
	}
	if cfg.UI.PaneTitleWidth == 0 {
		cfg.UI.PaneTitleWidth = def.UI.PaneTitleWidth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// =============================================================================
// PATHS
// =============================================================================

// DataDir returns the panechat data directory (~/.panechat).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".panechat"), nil
}

// Path returns the config file path (~/.panechat/config.toml).
func Path() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the log file location, honoring the config override.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "panechat.log"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config from the default location. A missing file is not an
// error: defaults plus environment overrides are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config from an explicit path, fills defaults, and
// applies environment overrides.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the default location atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies PANECHAT_* environment variables on top of the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("PANECHAT_OPENAI_KEY"); key != "" {
		c.API.OpenAIKey = key
	}
	if url := os.Getenv("PANECHAT_BASE_URL"); url != "" {
		c.API.BaseURL = url
	}
	if endpoint := os.Getenv("PANECHAT_AGENT_ENDPOINT"); endpoint != "" {
		c.Agent.Endpoint = endpoint
	}
	if level := os.Getenv("PANECHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if window := os.Getenv("PANECHAT_HISTORY_WINDOW"); window != "" {
		if n, err := strconv.Atoi(window); err == nil && n > 0 {
			c.Defaults.HistoryWindow = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks field values. The API key is deliberately not validated
// here: startup without a key is allowed, and RequireAPIKey gates the
// operations that need one.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return ValidationError{Field: "api.base_url", Message: "must be an http(s) URL"}
	}
	if c.Defaults.MaxTokens < 1 {
		return ValidationError{Field: "defaults.max_tokens", Message: "must be positive"}
	}
	if c.Defaults.HistoryWindow < 1 {
		return ValidationError{Field: "defaults.history_window", Message: "must be positive"}
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return ValidationError{Field: "ui.theme", Message: `must be "auto", "dark", or "light"`}
	}
	return nil
}

// RequireAPIKey returns ErrNoAPIKey when no key is configured. Called before
// any completion request is built.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.API.OpenAIKey) == "" {
		return ErrNoAPIKey
	}
	return nil
}
