// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent provides the HTTP client for the godmode agent API.
//
// Unlike the chat completion API the agent endpoint is plain JSON POST, no
// streaming: one call per step. Each response carries the command the agent
// wants to run next; its name and arguments are persisted between steps in
// the data directory so a restarted client resumes where the agent left
// off.
package agent
