// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite message store.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// REALTIME FEED
// =============================================================================

// WatchMessages streams messages of a conversation created at or after
// since. Writes by other processes sharing the database file are noticed
// through fsnotify on the database directory; a ticker polls as a fallback.
// The channel is closed once ctx is done.
func (s *Store) WatchMessages(ctx context.Context, conversationID string, since time.Time) (<-chan model.RemoteMessage, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(s.path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(s.path), err)
	}

	var sinceNanos int64
	if !since.IsZero() {
		sinceNanos = toNanos(since)
	}

	out := make(chan model.RemoteMessage)
	go s.watchLoop(ctx, fw, conversationID, sinceNanos, out)
	return out, nil
}

func (s *Store) watchLoop(ctx context.Context, fw *fsnotify.Watcher, conversationID string, since int64, out chan<- model.RemoteMessage) {
	defer close(out)
	defer fw.Close()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	base := filepath.Base(s.path)
	var cursor int64

	poll := func() bool {
		rows, err := s.messagesAfter(ctx, conversationID, cursor, since)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("feed poll failed", zap.String("conversation", conversationID), zap.Error(err))
			}
			return ctx.Err() == nil
		}
		for _, row := range rows {
			select {
			case out <- row.remote():
				cursor = row.Seq
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	if !poll() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			// The database, its WAL and shared-memory files all share the base name.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !poll() {
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			s.logger.Debug("watcher error", zap.Error(err))

		case <-ticker.C:
			if !poll() {
				return
			}
		}
	}
}
