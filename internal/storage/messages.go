// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite message store.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nrednav/cuid2"
	"go.uber.org/zap"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// messageRow is the database shape of a message.
type messageRow struct {
	Seq            int64          `db:"seq"`
	ID             string         `db:"id"`
	ConversationID string         `db:"conversation_id"`
	UserID         string         `db:"user_id"`
	Content        string         `db:"content"`
	ReplyTo        sql.NullString `db:"reply_to"`
	CreatedAt      int64          `db:"created_at"`
}

func (r messageRow) remote() model.RemoteMessage {
	return model.RemoteMessage{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Content:        r.Content,
		AuthorID:       r.UserID,
		CreatedAt:      fromNanos(r.CreatedAt),
		ReplyToID:      r.ReplyTo.String,
	}
}

const selectMessages = `SELECT seq, id, conversation_id, user_id, content, reply_to, created_at FROM messages`

// FetchMessages returns all messages of a conversation, oldest first.
func (s *Store) FetchMessages(ctx context.Context, conversationID string) ([]model.RemoteMessage, error) {
	if _, err := s.conversation(ctx, s.db, conversationID); err != nil {
		return nil, err
	}

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		selectMessages+` WHERE conversation_id = ? ORDER BY created_at, seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	out := make([]model.RemoteMessage, len(rows))
	for i, row := range rows {
		out[i] = row.remote()
	}
	return out, nil
}

// AppendMessage stores a new message and assigns its id and timestamp.
// Timestamps never go backwards within a conversation.
func (s *Store) AppendMessage(ctx context.Context, req model.AppendRequest) (model.AppendResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.AppendResult{}, fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.conversation(ctx, tx, req.ConversationID); err != nil {
		return model.AppendResult{}, err
	}

	created := toNanos(s.now())
	var last sql.NullInt64
	if err := tx.GetContext(ctx, &last,
		`SELECT MAX(created_at) FROM messages WHERE conversation_id = ?`, req.ConversationID); err != nil {
		return model.AppendResult{}, fmt.Errorf("reading last timestamp: %w", err)
	}
	if last.Valid && last.Int64 > created {
		created = last.Int64
	}

	row := messageRow{
		ID:             cuid2.Generate(),
		ConversationID: req.ConversationID,
		UserID:         req.AuthorID,
		Content:        req.Content,
		ReplyTo:        sql.NullString{String: req.ReplyToID, Valid: req.ReplyToID != ""},
		CreatedAt:      created,
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO messages
		(id, conversation_id, user_id, content, reply_to, created_at)
		VALUES (:id, :conversation_id, :user_id, :content, :reply_to, :created_at)`, row)
	if err != nil {
		return model.AppendResult{}, fmt.Errorf("inserting message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, created, req.ConversationID); err != nil {
		return model.AppendResult{}, fmt.Errorf("touching conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.AppendResult{}, fmt.Errorf("committing append: %w", err)
	}

	s.logger.Debug("message appended",
		zap.String("conversation", req.ConversationID),
		zap.String("id", row.ID),
	)
	return model.AppendResult{ID: row.ID, CreatedAt: fromNanos(created)}, nil
}

// messagesAfter returns messages of a conversation with seq above cursor and
// created at or after since, in insertion order.
func (s *Store) messagesAfter(ctx context.Context, conversationID string, cursor, since int64) ([]messageRow, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		selectMessages+` WHERE conversation_id = ? AND seq > ? AND created_at >= ? ORDER BY seq`,
		conversationID, cursor, since)
	if err != nil {
		return nil, fmt.Errorf("polling messages: %w", err)
	}
	return rows, nil
}
