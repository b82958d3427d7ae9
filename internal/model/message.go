// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks identifiers assigned locally before the store confirms a
// message. The store never issues ids with this prefix.
const TempIDPrefix = "tmp_"

// =============================================================================
// AUTHOR
// =============================================================================

// AuthorKind distinguishes the local user from everyone else.
type AuthorKind string

const (
	AuthorLocal  AuthorKind = "local"
	AuthorRemote AuthorKind = "remote"
)

// Author identifies who wrote a message.
type Author struct {
	ID          string     `json:"id"`
	Kind        AuthorKind `json:"kind"`
	DisplayName string     `json:"display_name"`
}

// IsLocal returns true if the author is the signed-in user.
func (a Author) IsLocal() bool {
	return a.Kind == AuthorLocal
}

// Label returns the name shown next to a message.
func (a Author) Label() string {
	if a.IsLocal() {
		return "You"
	}
	if a.DisplayName == "" {
		return a.ID
	}
	return a.DisplayName
}

// =============================================================================
// SEND STATE
// =============================================================================

// SendState is the delivery state of a message.
type SendState string

const (
	// StatePending means an append request is in flight.
	StatePending SendState = "pending"
	// StateConfirmed means the store accepted the message.
	StateConfirmed SendState = "confirmed"
	// StateFailed means the append request failed and may be resent.
	StateFailed SendState = "failed"
)

// String returns the string representation of the state.
func (s SendState) String() string {
	return string(s)
}

// Marker returns a short status marker for the message list.
func (s SendState) Marker() string {
	switch s {
	case StatePending:
		return "..."
	case StateFailed:
		return "!"
	default:
		return ""
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ReplyReference is a snapshot of the message being replied to. It is taken
// when the reply starts and never follows later edits of the target.
type ReplyReference struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
}

// Preview returns a truncated preview of the referenced content.
func (r ReplyReference) Preview(maxLen int) string {
	return truncate(r.Content, maxLen)
}

// Message is a single entry in a conversation's message list.
type Message struct {
	// Identity
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`

	// Content
	Content string          `json:"content"`
	Author  Author          `json:"author"`
	Reply   *ReplyReference `json:"reply,omitempty"`

	// Delivery
	SendState  SendState `json:"send_state"`
	FailReason string    `json:"fail_reason,omitempty"`
}

// NewPendingMessage creates a locally authored message awaiting confirmation.
func NewPendingMessage(tempID, conversationID string, author Author, content string, reply *ReplyReference, now time.Time) Message {
	return Message{
		ID:             tempID,
		ConversationID: conversationID,
		CreatedAt:      now,
		Content:        content,
		Author:         author,
		Reply:          reply.Clone(),
		SendState:      StatePending,
	}
}

// NewTempID returns a fresh temporary message id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID returns true if id was assigned locally.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Clone returns a copy of the reference, or nil.
func (r *ReplyReference) Clone() *ReplyReference {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsPending returns true while the append request is in flight.
func (m Message) IsPending() bool {
	return m.SendState == StatePending
}

// IsFailed returns true if the last send attempt failed.
func (m Message) IsFailed() bool {
	return m.SendState == StateFailed
}

// Snapshot freezes the message as a reply target.
func (m Message) Snapshot() ReplyReference {
	return ReplyReference{
		MessageID: m.ID,
		Content:   m.Content,
		Author:    m.Author,
	}
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	return truncate(m.Content, maxLen)
}

// Clock returns the 12-hour time label shown beside a message.
func (m Message) Clock() string {
	return m.CreatedAt.Local().Format("3:04 PM")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
