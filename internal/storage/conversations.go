// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite message store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// CONVERSATION RECORDS
// =============================================================================

// conversationRow is the database shape of a conversation summary.
type conversationRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	CreatedBy    string `db:"created_by"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
	LastMessage  string `db:"last_message"`
	LastActivity int64  `db:"last_activity"`
}

func (r conversationRow) summary() model.Conversation {
	return model.Conversation{
		ID:                 r.ID,
		DisplayName:        r.Name,
		LastMessagePreview: model.Message{Content: r.LastMessage}.Preview(model.PreviewLength),
		LastActivityAt:     fromNanos(r.LastActivity),
	}
}

const listConversations = `
SELECT c.id, c.name, c.created_by, c.created_at, c.updated_at,
    COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id
        ORDER BY m.created_at DESC, m.seq DESC LIMIT 1), '') AS last_message,
    COALESCE((SELECT MAX(m.created_at) FROM messages m WHERE m.conversation_id = c.id),
        c.updated_at) AS last_activity
FROM conversations c`

// ListConversations returns every conversation, most recently active first.
func (s *Store) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var rows []conversationRow
	if err := s.db.SelectContext(ctx, &rows, listConversations+` ORDER BY last_activity DESC, c.name`); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	out := make([]model.Conversation, len(rows))
	for i, row := range rows {
		out[i] = row.summary()
	}
	return out, nil
}

// GetConversation returns the summary of one conversation.
func (s *Store) GetConversation(ctx context.Context, id string) (model.Conversation, error) {
	row, err := s.conversation(ctx, s.db, id)
	if err != nil {
		return model.Conversation{}, err
	}
	return row.summary(), nil
}

// CreateConversation adds a conversation. The id is derived from name when
// empty.
func (s *Store) CreateConversation(ctx context.Context, id, name, createdBy string, createdAt time.Time) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("conversation name is required")
	}
	if id == "" {
		id = slugify(name)
	}
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO conversations (id, name, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id, name, createdBy, toNanos(createdAt), toNanos(createdAt))
	if err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}
	return id, nil
}

// conversation loads one conversation through q, which may be a transaction.
func (s *Store) conversation(ctx context.Context, q sqlx.QueryerContext, id string) (conversationRow, error) {
	var row conversationRow
	err := sqlx.GetContext(ctx, q, &row, listConversations+` WHERE c.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return conversationRow{}, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if err != nil {
		return conversationRow{}, fmt.Errorf("loading conversation: %w", err)
	}
	return row, nil
}

// slugify turns a display name into an id: "Random Chat" -> "random-chat".
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
