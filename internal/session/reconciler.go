// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"sort"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler holds the ordered message list of the active conversation.
//
// The list is non-decreasing by CreatedAt with ties kept in insertion order,
// and ids are unique. Unconfirmed entries carry provisional local timestamps
// that may be raised to keep that order when an earlier entry is confirmed.
type Reconciler struct {
	messages []model.Message
}

// NewReconciler creates an empty list.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Replace swaps the whole list for msgs sorted by creation time. Later
// duplicates of an id are dropped.
func (r *Reconciler) Replace(msgs []model.Message) {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]model.Message, 0, len(msgs))
	for _, msg := range msgs {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		out = append(out, msg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	r.messages = out
}

// Clear empties the list.
func (r *Reconciler) Clear() {
	r.messages = nil
}

// AppendConfirmed inserts a store-confirmed message after every entry created
// at or before it. It returns false if the id is already present.
func (r *Reconciler) AppendConfirmed(msg model.Message) bool {
	if r.indexOf(msg.ID) >= 0 {
		return false
	}
	msg.SendState = model.StateConfirmed
	msg.FailReason = ""
	r.insertOrdered(msg)
	return true
}

// AppendPending adds a locally authored message at the tail. Its timestamp is
// raised to the tail's if the local clock lags behind the list.
func (r *Reconciler) AppendPending(msg model.Message) bool {
	if r.indexOf(msg.ID) >= 0 {
		return false
	}
	if n := len(r.messages); n > 0 && msg.CreatedAt.Before(r.messages[n-1].CreatedAt) {
		msg.CreatedAt = r.messages[n-1].CreatedAt
	}
	r.messages = append(r.messages, msg)
	return true
}

// ResolvePending settles a pending entry. On success the entry keeps its slot
// and takes the store's id and timestamp; on failure it is marked failed.
// It returns false if tempID is not a pending entry.
func (r *Reconciler) ResolvePending(tempID string, result model.AppendResult, err error) bool {
	idx := r.indexOf(tempID)
	if idx < 0 || !r.messages[idx].IsPending() {
		return false
	}

	entry := &r.messages[idx]
	if err != nil {
		entry.SendState = model.StateFailed
		entry.FailReason = err.Error()
		return true
	}

	entry.ID = result.ID
	entry.SendState = model.StateConfirmed
	entry.FailReason = ""
	if !result.CreatedAt.IsZero() {
		entry.CreatedAt = result.CreatedAt
	}
	r.settle(idx)
	return true
}

// Remove deletes the entry with id and reports whether it existed.
func (r *Reconciler) Remove(id string) bool {
	idx := r.indexOf(id)
	if idx < 0 {
		return false
	}
	r.messages = append(r.messages[:idx], r.messages[idx+1:]...)
	return true
}

// Get returns the entry with id.
func (r *Reconciler) Get(id string) (model.Message, bool) {
	idx := r.indexOf(id)
	if idx < 0 {
		return model.Message{}, false
	}
	return r.messages[idx], true
}

// Index returns the position of id, or -1.
func (r *Reconciler) Index(id string) int {
	return r.indexOf(id)
}

// Messages returns a copy of the list.
func (r *Reconciler) Messages() []model.Message {
	out := make([]model.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Len returns the number of entries.
func (r *Reconciler) Len() int {
	return len(r.messages)
}

// Last returns the newest entry.
func (r *Reconciler) Last() (model.Message, bool) {
	if len(r.messages) == 0 {
		return model.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// PendingCount returns how many entries await confirmation.
func (r *Reconciler) PendingCount() int {
	n := 0
	for _, msg := range r.messages {
		if msg.IsPending() {
			n++
		}
	}
	return n
}

// SetReply replaces the reply snapshot of an entry.
func (r *Reconciler) SetReply(id string, ref *model.ReplyReference) bool {
	idx := r.indexOf(id)
	if idx < 0 {
		return false
	}
	r.messages[idx].Reply = ref.Clone()
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Reconciler) indexOf(id string) int {
	for i := range r.messages {
		if r.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Reconciler) insertOrdered(msg model.Message) {
	pos := sort.Search(len(r.messages), func(i int) bool {
		return r.messages[i].CreatedAt.After(msg.CreatedAt)
	})
	r.messages = append(r.messages, model.Message{})
	copy(r.messages[pos+1:], r.messages[pos:])
	r.messages[pos] = msg
}

// settle restores ordering after the entry at idx took a store timestamp.
// Unconfirmed entries directly behind it are moved up to that timestamp; a
// genuine conflict with a confirmed entry falls back to a stable sort.
func (r *Reconciler) settle(idx int) {
	t := r.messages[idx].CreatedAt
	for j := idx + 1; j < len(r.messages); j++ {
		next := &r.messages[j]
		if next.SendState == model.StateConfirmed || !next.CreatedAt.Before(t) {
			break
		}
		next.CreatedAt = t
	}

	sorted := sort.SliceIsSorted(r.messages, func(i, j int) bool {
		return r.messages[i].CreatedAt.Before(r.messages[j].CreatedAt)
	})
	if !sorted {
		sort.SliceStable(r.messages, func(i, j int) bool {
			return r.messages[i].CreatedAt.Before(r.messages[j].CreatedAt)
		})
	}
}
