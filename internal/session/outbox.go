// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// OUTBOX
// =============================================================================

// outgoing is an append that has a pending entry but may not have reached
// the store yet.
type outgoing struct {
	epoch          uint64
	conversationID string
	tempID         string
	authorID       string
	content        string
	reply          *model.ReplyReference
}

// outbox keeps at most one append per conversation in flight. The store
// therefore persists and timestamps messages in the order they were written.
// Queues outlive conversation switches: leaving a conversation does not
// cancel what was already sent to it.
type outbox struct {
	inflight map[string]bool
	queued   map[string][]outgoing
}

func newOutbox() *outbox {
	return &outbox{
		inflight: make(map[string]bool),
		queued:   make(map[string][]outgoing),
	}
}

// push adds s and returns it when it can be issued right away.
func (o *outbox) push(s outgoing) (outgoing, bool) {
	if o.inflight[s.conversationID] {
		o.queued[s.conversationID] = append(o.queued[s.conversationID], s)
		return outgoing{}, false
	}
	o.inflight[s.conversationID] = true
	return s, true
}

// done records that the append in flight for conversationID completed and
// returns the next one to issue, if any.
func (o *outbox) done(conversationID string) (outgoing, bool) {
	q := o.queued[conversationID]
	if len(q) == 0 {
		delete(o.inflight, conversationID)
		delete(o.queued, conversationID)
		return outgoing{}, false
	}
	next := q[0]
	if len(q) == 1 {
		delete(o.queued, conversationID)
	} else {
		o.queued[conversationID] = q[1:]
	}
	return next, true
}

// waiting returns how many appends for conversationID have not been issued.
func (o *outbox) waiting(conversationID string) int {
	return len(o.queued[conversationID])
}
