// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "time"

// =============================================================================
// STORE RECORDS
// =============================================================================

// RemoteMessage is a message as persisted by a message store.
type RemoteMessage struct {
	ID             string    `json:"id" db:"id" yaml:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id" yaml:"-"`
	Content        string    `json:"content" db:"content" yaml:"content"`
	AuthorID       string    `json:"user_id" db:"user_id" yaml:"user"`
	CreatedAt      time.Time `json:"created_at" db:"-" yaml:"-"`
	ReplyToID      string    `json:"reply_to,omitempty" db:"reply_to" yaml:"reply_to,omitempty"`
}

// AppendRequest asks a store to persist a new message.
type AppendRequest struct {
	ConversationID string `json:"conversation_id"`
	AuthorID       string `json:"user_id"`
	Content        string `json:"content"`
	ReplyToID      string `json:"reply_to,omitempty"`
}

// AppendResult is what a store assigns to an accepted message.
type AppendResult struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Confirmed converts a stored message into a list entry. The reply snapshot
// is filled in separately because it depends on the surrounding messages.
func (r RemoteMessage) Confirmed(author Author) Message {
	return Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		CreatedAt:      r.CreatedAt,
		Content:        r.Content,
		Author:         author,
		SendState:      StateConfirmed,
	}
}
