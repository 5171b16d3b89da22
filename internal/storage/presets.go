// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jeranaias/panechat/internal/model"
)

// =============================================================================
// PRESETS
// =============================================================================

// AddPreset inserts a preset and returns its id. The TS field is assigned
// here, not taken from the argument.
func (s *Store) AddPreset(p model.Preset) (int64, error) {
	providers, err := model.EncodeProviders(p.Providers)
	if err != nil {
		return 0, storeErr("add preset", err)
	}
	res, err := s.db.Exec(
		"INSERT INTO presets (ts, title, shortcut, providers) VALUES (?, ?, ?, ?)",
		time.Now().UnixMilli(), p.Title, p.Shortcut, providers,
	)
	if err != nil {
		return 0, storeErr("add preset", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("add preset", err)
	}
	return id, nil
}

// GetPreset returns a preset by id, or ErrNotFound.
func (s *Store) GetPreset(id int64) (model.Preset, error) {
	row := s.db.QueryRow(
		"SELECT id, ts, title, shortcut, providers FROM presets WHERE id = ?", id,
	)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Preset{}, ErrNotFound
	}
	if err != nil {
		return model.Preset{}, storeErr("get preset", err)
	}
	return p, nil
}

// PutPreset replaces an existing preset's fields.
func (s *Store) PutPreset(p model.Preset) error {
	providers, err := model.EncodeProviders(p.Providers)
	if err != nil {
		return storeErr("put preset", err)
	}
	res, err := s.db.Exec(
		"UPDATE presets SET title = ?, shortcut = ?, providers = ? WHERE id = ?",
		p.Title, p.Shortcut, providers, p.ID,
	)
	if err != nil {
		return storeErr("put preset", err)
	}
	return requireAffected(res, "put preset")
}

// ListPresets returns all presets, newest first.
func (s *Store) ListPresets() ([]model.Preset, error) {
	rows, err := s.db.Query(
		"SELECT id, ts, title, shortcut, providers FROM presets ORDER BY ts DESC, id DESC",
	)
	if err != nil {
		return nil, storeErr("list presets", err)
	}
	defer rows.Close()

	var out []model.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, storeErr("list presets", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list presets", err)
	}
	return out, nil
}

// DeletePreset removes a preset. Conversations that referenced it are
// detached (preset_id set NULL by the foreign key), falling back to the
// default provider.
func (s *Store) DeletePreset(id int64) error {
	_, err := s.db.Exec("DELETE FROM presets WHERE id = ?", id)
	return storeErr("delete preset", err)
}

func scanPreset(row rowScanner) (model.Preset, error) {
	var (
		p         model.Preset
		ts        int64
		shortcut  sql.NullString
		providers []byte
	)
	if err := row.Scan(&p.ID, &ts, &p.Title, &shortcut, &providers); err != nil {
		return model.Preset{}, err
	}
	decoded, err := model.DecodeProviders(providers)
	if err != nil {
		return model.Preset{}, err
	}
	p.TS = time.UnixMilli(ts)
	if shortcut.Valid {
		p.Shortcut = &shortcut.String
	}
	p.Providers = decoded
	return p, nil
}
