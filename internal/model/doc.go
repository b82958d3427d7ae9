// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the domain types shared by the session engine, the
// message stores and the user interface.
//
// # Key Types
//
//   - Message: Entry in a conversation list with author, send state and reply snapshot
//   - ReplyReference: Frozen copy of the message being replied to
//   - Conversation: Channel summary (name, last message preview, last activity)
//   - RemoteMessage: Message as persisted by a store
//   - AppendRequest / AppendResult: Store append round trip
//   - Identity: The signed-in user
//
// # Usage
//
// Create an optimistic entry before the store confirms it:
//
//	msg := model.NewPendingMessage(model.NewTempID(), convID,
//	    identity.Author(), "Hello!", nil, time.Now())
//
// Freeze a reply target:
//
//	ref := target.Snapshot()
package model
