// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import "github.com/jeranaias/webchat-tui/internal/model"

// ReplyTracker holds at most one reply draft.
type ReplyTracker struct {
	draft *model.ReplyReference
}

// NewReplyTracker creates a tracker with no draft.
func NewReplyTracker() *ReplyTracker {
	return &ReplyTracker{}
}

// Begin snapshots msg as the reply target, replacing any earlier draft.
func (t *ReplyTracker) Begin(msg model.Message) model.ReplyReference {
	ref := msg.Snapshot()
	t.draft = &ref
	return ref
}

// Cancel drops the draft. Safe to call without one.
func (t *ReplyTracker) Cancel() {
	t.draft = nil
}

// Draft returns the current draft.
func (t *ReplyTracker) Draft() (model.ReplyReference, bool) {
	if t.draft == nil {
		return model.ReplyReference{}, false
	}
	return *t.draft, true
}

// ConsumeForSend returns a copy of the draft for an outgoing message. The
// draft stays active until the send is confirmed.
func (t *ReplyTracker) ConsumeForSend() *model.ReplyReference {
	return t.draft.Clone()
}

// ClearIfReferences drops the draft if it targets messageID.
func (t *ReplyTracker) ClearIfReferences(messageID string) bool {
	if t.draft == nil || t.draft.MessageID != messageID {
		return false
	}
	t.draft = nil
	return true
}
