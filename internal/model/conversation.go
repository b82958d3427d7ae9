// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// PreviewLength is the rune length of conversation list previews.
const PreviewLength = 60

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a named channel of messages. The preview and activity
// fields are derived from the newest message.
type Conversation struct {
	ID                 string    `json:"id"`
	DisplayName        string    `json:"name"`
	LastMessagePreview string    `json:"last_message,omitempty"`
	LastActivityAt     time.Time `json:"updated_at"`
}

// Title returns the display name, falling back to the id.
func (c Conversation) Title() string {
	if c.DisplayName == "" {
		return c.ID
	}
	return c.DisplayName
}

// Initials returns up to two uppercase initials for the avatar slot.
func (c Conversation) Initials() string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(c.Title()) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}
	return b.String()
}

// Touch updates the derived summary after msg was confirmed.
func (c *Conversation) Touch(msg Message) {
	if msg.CreatedAt.Before(c.LastActivityAt) {
		return
	}
	c.LastMessagePreview = msg.Preview(PreviewLength)
	c.LastActivityAt = msg.CreatedAt
}

// =============================================================================
// IDENTITY
// =============================================================================

// Identity is the signed-in user.
type Identity struct {
	UserID      string `json:"user_id" toml:"user_id"`
	DisplayName string `json:"display_name" toml:"display_name"`
}

// Author returns the local author record for this identity.
func (i Identity) Author() Author {
	return Author{ID: i.UserID, Kind: AuthorLocal, DisplayName: i.DisplayName}
}
