// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures structured logging for panechat.
//
// The TUI owns stdout and stderr, so log output goes to a file in the data
// directory (~/.panechat/panechat.log by default). Components obtain a
// scoped logger with For("component") so log lines can be filtered per
// subsystem.
//
// Until Init is called the package logger is a no-op, which keeps tests
// quiet without any setup.
package logging
