// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// REALTIME FEED
// =============================================================================

// startFeed subscribes to messages of the active conversation created after
// since. The previous subscription is cancelled.
func (m *Manager) startFeed(since time.Time) tea.Cmd {
	if m.watcher == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.feed.replace(cancel)

	watcher, conv, epoch := m.watcher, m.active, m.epoch
	return func() tea.Msg {
		feed, err := watcher.WatchMessages(ctx, conv, since)
		return watchStartedMsg{epoch: epoch, feed: feed, err: err}
	}
}

func (m *Manager) handleWatchStarted(msg watchStartedMsg) tea.Cmd {
	if msg.epoch != m.epoch {
		m.discard("watch", zap.Uint64("epoch", msg.epoch))
		return nil
	}
	if msg.err != nil {
		m.logger.Warn("realtime feed unavailable", zap.String("conversation", m.active), zap.Error(msg.err))
		return nil
	}
	return m.waitForRemote(msg.feed)
}

// waitForRemote blocks on the feed for the next message. It is issued again
// after every delivery.
func (m *Manager) waitForRemote(feed <-chan model.RemoteMessage) tea.Cmd {
	epoch, profiles := m.epoch, m.profiles
	return func() tea.Msg {
		rm, ok := <-feed
		if !ok {
			return feedClosedMsg{epoch: epoch}
		}
		ctx, cancel := requestContext(0)
		defer cancel()
		return RemoteMessageMsg{
			Epoch:      epoch,
			Message:    rm,
			AuthorName: profiles.lookup(ctx, rm.AuthorID),
			feed:       feed,
		}
	}
}

func (m *Manager) handleRemote(msg RemoteMessageMsg) tea.Cmd {
	if msg.Epoch != m.epoch || msg.Message.ConversationID != m.active {
		m.discard("remote", zap.String("id", msg.Message.ID), zap.Uint64("epoch", msg.Epoch))
		return nil
	}

	rm := msg.Message
	entry := rm.Confirmed(m.authorFor(rm.AuthorID, msg.AuthorName))
	if rm.ReplyToID != "" {
		if target, ok := m.list.Get(rm.ReplyToID); ok {
			ref := target.Snapshot()
			entry.Reply = &ref
		} else {
			entry.Reply = &model.ReplyReference{
				MessageID: rm.ReplyToID,
				Author:    model.Author{Kind: model.AuthorRemote, DisplayName: m.cfg.UnknownAuthorName},
			}
		}
	}

	// Own messages already confirmed by their append are skipped by id.
	if m.list.AppendConfirmed(entry) {
		m.touchConversation(entry)
	}

	if msg.feed == nil {
		return nil
	}
	return m.waitForRemote(msg.feed)
}
