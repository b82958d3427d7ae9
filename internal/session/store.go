// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"context"
	"time"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// MessageStore is the persisted message log.
type MessageStore interface {
	// FetchMessages returns every message of a conversation ordered by
	// creation time.
	FetchMessages(ctx context.Context, conversationID string) ([]model.RemoteMessage, error)

	// AppendMessage persists a message at most once. A returned error means
	// the store did not keep it.
	AppendMessage(ctx context.Context, req model.AppendRequest) (model.AppendResult, error)
}

// ProfileResolver maps author ids to display names.
type ProfileResolver interface {
	DisplayName(ctx context.Context, authorID string) (string, error)
}

// IdentityProvider supplies the signed-in user.
type IdentityProvider interface {
	Identity() (model.Identity, bool)
}

// ConversationLister is implemented by stores that can enumerate
// conversations.
type ConversationLister interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
}

// MessageWatcher is implemented by stores with a realtime feed. The returned
// channel delivers messages created after since and is closed when ctx ends.
type MessageWatcher interface {
	WatchMessages(ctx context.Context, conversationID string, since time.Time) (<-chan model.RemoteMessage, error)
}

// StaticIdentity is an IdentityProvider backed by configuration.
type StaticIdentity model.Identity

// Identity returns the configured identity; it is absent without a user id.
func (s StaticIdentity) Identity() (model.Identity, bool) {
	id := model.Identity(s)
	return id, id.UserID != ""
}
