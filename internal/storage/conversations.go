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
// CONVERSATIONS
// =============================================================================

// AddConversation inserts a new conversation and returns its id. presetID
// may be nil for ad-hoc conversations.
func (s *Store) AddConversation(presetID *int64) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO conversations (ts, preset_id) VALUES (?, ?)",
		time.Now().UnixMilli(), presetID,
	)
	if err != nil {
		return 0, storeErr("add conversation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("add conversation", err)
	}
	return id, nil
}

// GetConversation returns a conversation by id, or ErrNotFound.
func (s *Store) GetConversation(id int64) (model.Conversation, error) {
	row := s.db.QueryRow(
		"SELECT id, ts, preset_id, title FROM conversations WHERE id = ?", id,
	)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Conversation{}, ErrNotFound
	}
	if err != nil {
		return model.Conversation{}, storeErr("get conversation", err)
	}
	return conv, nil
}

// ListConversations returns all conversations, newest first.
func (s *Store) ListConversations() ([]model.Conversation, error) {
	rows, err := s.db.Query(
		"SELECT id, ts, preset_id, title FROM conversations ORDER BY ts DESC, id DESC",
	)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, storeErr("list conversations", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list conversations", err)
	}
	return out, nil
}

// SetConversationTitle updates the title. The empty string is a valid value:
// it marks titling as in flight.
func (s *Store) SetConversationTitle(id int64, title string) error {
	res, err := s.db.Exec("UPDATE conversations SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return storeErr("set conversation title", err)
	}
	return requireAffected(res, "set conversation title")
}

// SetConversationPreset re-points a conversation at a preset.
func (s *Store) SetConversationPreset(id, presetID int64) error {
	res, err := s.db.Exec("UPDATE conversations SET preset_id = ? WHERE id = ?", presetID, id)
	if err != nil {
		return storeErr("set conversation preset", err)
	}
	return requireAffected(res, "set conversation preset")
}

// DeleteConversation removes a conversation and, via the foreign key
// cascade, all of its messages. Deleting a missing conversation is a no-op.
func (s *Store) DeleteConversation(id int64) error {
	_, err := s.db.Exec("DELETE FROM conversations WHERE id = ?", id)
	return storeErr("delete conversation", err)
}

// CountMessages returns the number of messages in a conversation.
func (s *Store) CountMessages(conversationID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID,
	).Scan(&n)
	if err != nil {
		return 0, storeErr("count messages", err)
	}
	return n, nil
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (model.Conversation, error) {
	var (
		conv     model.Conversation
		ts       int64
		presetID sql.NullInt64
		title    sql.NullString
	)
	if err := row.Scan(&conv.ID, &ts, &presetID, &title); err != nil {
		return model.Conversation{}, err
	}
	conv.TS = time.UnixMilli(ts)
	if presetID.Valid {
		conv.PresetID = &presetID.Int64
	}
	if title.Valid {
		conv.Title = &title.String
	}
	return conv, nil
}

// requireAffected converts a zero-row update into ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
