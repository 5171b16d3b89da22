// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/panechat/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// AddMessage appends a message to a conversation and returns its id.
func (s *Store) AddMessage(conversationID int64, body model.MessageBody) (int64, error) {
	kind, payload, err := model.EncodeBody(body)
	if err != nil {
		return 0, storeErr("add message", err)
	}
	res, err := s.db.Exec(
		"INSERT INTO messages (conversation_id, ts, kind, body) VALUES (?, ?, ?, ?)",
		conversationID, time.Now().UnixMilli(), string(kind), payload,
	)
	if err != nil {
		return 0, storeErr("add message", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("add message", err)
	}
	return id, nil
}

// GetMessage returns a message by id, or ErrNotFound.
func (s *Store) GetMessage(id int64) (model.Message, error) {
	row := s.db.QueryRow(
		"SELECT id, conversation_id, ts, kind, body FROM messages WHERE id = ?", id,
	)
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, storeErr("get message", err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages in insertion order.
func (s *Store) ListMessages(conversationID int64) ([]model.Message, error) {
	rows, err := s.db.Query(
		"SELECT id, conversation_id, ts, kind, body FROM messages WHERE conversation_id = ? ORDER BY id ASC",
		conversationID,
	)
	if err != nil {
		return nil, storeErr("list messages", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, storeErr("list messages", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list messages", err)
	}
	return out, nil
}

// SetMessageContent rewrites the content of a plain chat message. This is
// the terminal write at the end of a streamed response; it only applies to
// the open-ai kind.
func (s *Store) SetMessageContent(id int64, content string) error {
	msg, err := s.GetMessage(id)
	if err != nil {
		return err
	}
	body, ok := msg.Body.(model.OpenAIBody)
	if !ok {
		return storeErr("set message content",
			fmt.Errorf("message %d has kind %s, not %s", id, msg.Kind(), model.KindOpenAI))
	}
	body.Content = content

	_, payload, err := model.EncodeBody(body)
	if err != nil {
		return storeErr("set message content", err)
	}
	res, err := s.db.Exec("UPDATE messages SET body = ? WHERE id = ?", payload, id)
	if err != nil {
		return storeErr("set message content", err)
	}
	return requireAffected(res, "set message content")
}

func scanMessage(row rowScanner) (model.Message, error) {
	var (
		msg     model.Message
		ts      int64
		kind    string
		payload []byte
	)
	if err := row.Scan(&msg.ID, &msg.ConversationID, &ts, &kind, &payload); err != nil {
		return model.Message{}, err
	}
	body, err := model.DecodeBody(model.MessageKind(kind), payload)
	if err != nil {
		return model.Message{}, err
	}
	msg.TS = time.UnixMilli(ts)
	msg.Body = body
	return msg, nil
}
