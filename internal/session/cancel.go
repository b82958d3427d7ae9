// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
//
// This file holds the cancel function of the realtime feed. Close may be
// called after the event loop has exited, so access is locked.
package session

import (
	"context"
	"sync"
)

// feedCanceller owns the context of the running realtime feed.
// It must be used as a pointer so the mutex is never copied.
type feedCanceller struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newFeedCanceller() *feedCanceller {
	return &feedCanceller{}
}

// replace cancels the previous feed, if any, and stores fn.
func (fc *feedCanceller) replace(fn context.CancelFunc) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.cancelFunc != nil {
		fc.cancelFunc()
	}
	fc.cancelFunc = fn
}

// cancel stops the running feed. Safe to call multiple times.
func (fc *feedCanceller) cancel() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.cancelFunc != nil {
		fc.cancelFunc()
		fc.cancelFunc = nil
	}
}
