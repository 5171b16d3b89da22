// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/panechat/internal/util"
)

// argsFile is the file name under the data directory.
const argsFile = "agent-args.json"

// StartCommand is the command value for a fresh agent run.
const StartCommand = "###start###"

// Args is the pending agent command carried between steps. Arguments is
// opaque: whatever the API returned is sent back verbatim.
type Args struct {
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments"`
}

// DefaultArgs returns the args for a run with no saved state.
func DefaultArgs() Args {
	return Args{Command: StartCommand, Arguments: json.RawMessage(`""`)}
}

// LoadArgs reads the saved args from dataDir. A missing file returns
// DefaultArgs.
func LoadArgs(dataDir string) (Args, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, argsFile))
	if os.IsNotExist(err) {
		return DefaultArgs(), nil
	}
	if err != nil {
		return Args{}, fmt.Errorf("failed to read agent args: %w", err)
	}
	var args Args
	if err := json.Unmarshal(data, &args); err != nil {
		return Args{}, fmt.Errorf("failed to parse agent args: %w", err)
	}
	return args, nil
}

// SaveArgs persists the args to dataDir atomically.
func SaveArgs(dataDir string, args Args) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode agent args: %w", err)
	}
	return util.AtomicWriteFile(filepath.Join(dataDir, argsFile), data, 0600)
}
