// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for panechat.
//
// Configuration is TOML at ~/.panechat/config.toml, with built-in defaults
// and PANECHAT_* environment variable overrides layered on top. A Watcher
// re-loads the file on change so API keys and defaults can be edited while
// the TUI is running.
//
// The OpenAI API key is the only required value; Config.RequireAPIKey
// returns ErrNoAPIKey so callers can surface the problem before any
// network call is attempted.
package config
