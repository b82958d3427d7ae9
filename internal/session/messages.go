// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// Every completion carries the epoch that was current when its command was
// issued. The epoch advances on each conversation switch.

// HistoryLoadedMsg delivers a history fetch.
type HistoryLoadedMsg struct {
	Epoch          uint64
	Seq            uint64
	ConversationID string
	Messages       []model.RemoteMessage
	Names          map[string]string
	Err            error
}

// SendResultMsg delivers the outcome of an append.
type SendResultMsg struct {
	Epoch          uint64
	ConversationID string
	TempID         string
	Result         model.AppendResult
	Err            error
}

// RemoteMessageMsg delivers a message from the realtime feed.
type RemoteMessageMsg struct {
	Epoch      uint64
	Message    model.RemoteMessage
	AuthorName string

	feed <-chan model.RemoteMessage
}

// ConversationsLoadedMsg delivers the conversation list.
type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

type watchStartedMsg struct {
	epoch uint64
	feed  <-chan model.RemoteMessage
	err   error
}

type feedClosedMsg struct {
	epoch uint64
}

type typingStartMsg struct {
	epoch uint64
	gen   uint64
}

type typingStopMsg struct {
	epoch uint64
	gen   uint64
}
