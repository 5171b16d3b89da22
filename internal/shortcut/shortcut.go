// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shortcut

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/panechat/internal/logging"
	"github.com/jeranaias/panechat/internal/model"
)

// =============================================================================
// KEY ALPHABET
// =============================================================================

// Space is the sentinel key for "new conversation on the default provider".
// It is always bound and presets cannot claim it.
const Space = "space"

// Keys is the claimable shortcut alphabet.
var Keys = []string{"a", "s", "d", "f"}

// Valid reports whether key is in the claimable alphabet.
func Valid(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// =============================================================================
// CHORDS
// =============================================================================

// Chord returns the key sequence that triggers a shortcut.
func Chord(key string) string {
	return chordFor(runtime.GOOS, key, false)
}

// NewPaneChord returns the key sequence that triggers a shortcut and opens
// the conversation in a new pane.
func NewPaneChord(key string) string {
	return chordFor(runtime.GOOS, key, true)
}

// chordFor is the single place platform modifiers are resolved. Plain
// shortcuts ride ctrl; the new-pane variant adds alt, except on darwin
// where terminals deliver option as a bare alt chord.
func chordFor(goos, key string, newPane bool) string {
	// Terminals report ctrl+space as ctrl+@.
	if key == Space {
		key = "@"
		if newPane {
			key = " "
		}
	}
	if !newPane {
		return "ctrl+" + key
	}
	if goos == "darwin" {
		return "alt+" + key
	}
	return "ctrl+alt+" + key
}

// =============================================================================
// REGISTRY
// =============================================================================

// Binding is one resolved shortcut.
type Binding struct {
	Key string
	// PresetID is nil for the Space sentinel (default provider).
	PresetID *int64
}

// Registry resolves shortcut keys to presets. Rebuild it whenever presets
// change; Resolve is safe from the event loop while a rebuild runs.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]int64
	log   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]int64),
		log:   logging.For("shortcut"),
	}
}

// Rebuild replaces the bindings from the preset list. A collision keeps the
// lowest preset id and logs a warning; both presets stay usable from the
// preset list, only the key resolves to one of them. Keys outside the
// alphabet are ignored with a warning.
func (r *Registry) Rebuild(presets []model.Preset) {
	byKey := make(map[string]int64)
	for _, p := range presets {
		if p.Shortcut == nil {
			continue
		}
		key := *p.Shortcut
		if !Valid(key) {
			r.log.Warn().Str("key", key).Int64("preset", p.ID).Msg("shortcut outside alphabet, ignored")
			continue
		}
		if existing, ok := byKey[key]; ok {
			r.log.Warn().Str("key", key).Int64("preset", p.ID).Int64("winner", min64(existing, p.ID)).
				Msg("duplicate shortcut")
			if p.ID > existing {
				continue
			}
		}
		byKey[key] = p.ID
	}

	r.mu.Lock()
	r.byKey = byKey
	r.mu.Unlock()
}

// Resolve maps a key to its binding. Space always resolves; a claimable key
// resolves only when a preset holds it.
func (r *Registry) Resolve(key string) (Binding, bool) {
	if key == Space {
		return Binding{Key: Space}, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[key]
	if !ok {
		return Binding{}, false
	}
	return Binding{Key: key, PresetID: &id}, true
}

// Bindings returns every active binding, Space first, then the alphabet in
// order.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Binding{{Key: Space}}
	for _, key := range Keys {
		if id, ok := r.byKey[key]; ok {
			id := id
			out = append(out, Binding{Key: key, PresetID: &id})
		}
	}
	return out
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
