// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"errors"
	"fmt"
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationError rejects an operation before it starts. Nothing is sent to
// the store and no state changes.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// Is matches validation errors by reason.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

var (
	// ErrEmptyContent is returned for empty or whitespace-only messages.
	ErrEmptyContent = &ValidationError{Reason: "message is empty"}

	// ErrContentTooLong is returned when a message exceeds the length limit.
	ErrContentTooLong = &ValidationError{Reason: "message is too long"}

	// ErrNoConversation is returned when no conversation is active.
	ErrNoConversation = &ValidationError{Reason: "no active conversation"}

	// ErrUnauthenticated is returned when no identity is available.
	ErrUnauthenticated = &ValidationError{Reason: "not signed in"}

	// ErrMessageNotFound is returned for ids absent from the active list.
	ErrMessageNotFound = &ValidationError{Reason: "message not found"}

	// ErrNotResendable is returned when resending a message that has not failed.
	ErrNotResendable = &ValidationError{Reason: "only failed messages can be resent"}

	// ErrNoStore is returned by NewManager without a message store.
	ErrNoStore = errors.New("session: message store is required")
)

// =============================================================================
// REMOTE FAILURES
// =============================================================================

// LoadError reports a failed history fetch. The message list is left empty.
type LoadError struct {
	ConversationID string
	Err            error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load history for %s: %v", e.ConversationID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SendError reports a failed append. The message stays in the list as failed.
type SendError struct {
	ConversationID string
	MessageID      string
	Err            error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s: %v", e.MessageID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// errStaleCompletion tags discarded completions in the debug log.
var errStaleCompletion = errors.New("stale completion")
