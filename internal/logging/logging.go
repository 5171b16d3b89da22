// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// ===== PACKAGE STATE =====

var (
	mu      sync.Mutex
	logger  = zerolog.Nop()
	logFile *os.File
)

// ===== SETUP =====

// Init opens (or creates) the log file at path and routes all package
// loggers to it. The parent directory is created if missing. Level accepts
// zerolog level names ("debug", "info", "warn", "error"); unknown values
// fall back to info.
func Init(path, level string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return nil
}

// Close flushes and closes the log file. Safe to call when Init never ran.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = zerolog.Nop()
}

// ===== ACCESSORS =====

// L returns the package logger.
func L() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// For returns a logger scoped to a named component.
func For(component string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger.With().Str("component", component).Logger()
}
