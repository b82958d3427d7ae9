// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/util"
)

// =============================================================================
// SEND PIPELINE
// =============================================================================

// Send validates content and appends it to the active conversation as a
// pending entry. The returned command performs the append; it is nil while
// an earlier append to the conversation is outstanding, and the append is
// issued once that one completes. The current reply draft is attached and
// stays active until the store confirms the message.
func (m *Manager) Send(content string) (tea.Cmd, error) {
	author, err := m.sender()
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(norm.NFC.String(content))
	if content == "" {
		return nil, ErrEmptyContent
	}
	if limit := m.cfg.MaxMessageLength; limit > 0 {
		if n := util.RuneLen(content); n > limit {
			return nil, fmt.Errorf("%w (%d of %d characters)", ErrContentTooLong, n, limit)
		}
	}

	return m.dispatch(author, content, m.reply.ConsumeForSend()), nil
}

// Resend retries a failed message. The failed entry is replaced by a new
// pending attempt carrying the same content and reply snapshot.
func (m *Manager) Resend(id string) (tea.Cmd, error) {
	author, err := m.sender()
	if err != nil {
		return nil, err
	}

	failed, ok := m.list.Get(id)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if !failed.IsFailed() {
		return nil, ErrNotResendable
	}

	m.list.Remove(id)
	return m.dispatch(author, failed.Content, failed.Reply), nil
}

// sender returns the local author or the reason sending is impossible.
func (m *Manager) sender() (model.Author, error) {
	id, ok := m.identity.Identity()
	if !ok {
		return model.Author{}, ErrUnauthenticated
	}
	if m.active == "" {
		return model.Author{}, ErrNoConversation
	}
	return id.Author(), nil
}

// dispatch creates the pending entry and hands the append to the outbox.
func (m *Manager) dispatch(author model.Author, content string, reply *model.ReplyReference) tea.Cmd {
	tempID := m.newTempID()
	entry := model.NewPendingMessage(tempID, m.active, author, content, reply, m.now())
	m.list.AppendPending(entry)

	s := outgoing{
		epoch:          m.epoch,
		conversationID: m.active,
		tempID:         tempID,
		authorID:       author.ID,
		content:        content,
		reply:          reply,
	}
	next, ok := m.outbox.push(s)
	if !ok {
		m.logger.Debug("send queued",
			zap.String("conversation", s.conversationID),
			zap.String("temp_id", tempID),
			zap.Int("waiting", m.outbox.waiting(s.conversationID)),
		)
		return nil
	}
	return m.appendCmd(next)
}

// appendCmd returns the command that performs s. The request is built now,
// so a reply to a message confirmed in the meantime carries its store id.
// The command captures values only; it never touches the manager.
func (m *Manager) appendCmd(s outgoing) tea.Cmd {
	req := model.AppendRequest{
		ConversationID: s.conversationID,
		AuthorID:       s.authorID,
		Content:        s.content,
		ReplyToID:      m.storeReplyID(s.reply),
	}
	store, timeout := m.store, m.cfg.RequestTimeout

	m.logger.Debug("send dispatched",
		zap.String("conversation", s.conversationID),
		zap.String("temp_id", s.tempID),
		zap.Uint64("epoch", s.epoch),
	)

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		res, err := store.AppendMessage(ctx, req)
		return SendResultMsg{
			Epoch:          s.epoch,
			ConversationID: s.conversationID,
			TempID:         s.tempID,
			Result:         res,
			Err:            err,
		}
	}
}

// storeReplyID maps a reply snapshot to an id the store knows. A target
// that is still unconfirmed cannot be referenced remotely; the local snapshot
// is kept either way.
func (m *Manager) storeReplyID(reply *model.ReplyReference) string {
	if reply == nil {
		return ""
	}
	if id, ok := m.confirmedIDs[reply.MessageID]; ok {
		return id
	}
	if model.IsTempID(reply.MessageID) {
		return ""
	}
	return reply.MessageID
}

// handleSendResult applies an append result and issues the next queued
// append of the same conversation. Stale results still advance the queue.
func (m *Manager) handleSendResult(msg SendResultMsg) tea.Cmd {
	typing := m.applySendResult(msg)
	next, ok := m.outbox.done(msg.ConversationID)
	if !ok {
		return typing
	}
	return tea.Batch(m.appendCmd(next), typing)
}

func (m *Manager) applySendResult(msg SendResultMsg) tea.Cmd {
	if msg.Epoch != m.epoch || msg.ConversationID != m.active {
		m.discard("send", zap.String("temp_id", msg.TempID), zap.Uint64("epoch", msg.Epoch))
		return nil
	}
	entry, ok := m.list.Get(msg.TempID)
	if !ok || !entry.IsPending() {
		m.discard("send", zap.String("temp_id", msg.TempID), zap.String("reason", "entry gone"))
		return nil
	}

	if msg.Err != nil {
		m.list.ResolvePending(msg.TempID, model.AppendResult{}, msg.Err)
		m.lastSendErr = &SendError{ConversationID: msg.ConversationID, MessageID: msg.TempID, Err: msg.Err}
		m.logger.Warn("send failed",
			zap.String("conversation", msg.ConversationID),
			zap.String("temp_id", msg.TempID),
			zap.Error(msg.Err),
		)
		return nil
	}

	m.confirmedIDs[msg.TempID] = msg.Result.ID
	if _, echoed := m.list.Get(msg.Result.ID); echoed {
		// The realtime feed delivered the message first.
		m.list.SetReply(msg.Result.ID, entry.Reply)
		m.list.Remove(msg.TempID)
	} else {
		m.list.ResolvePending(msg.TempID, msg.Result, nil)
	}

	if entry.Reply != nil {
		m.reply.ClearIfReferences(entry.Reply.MessageID)
	}
	if confirmed, ok := m.list.Get(msg.Result.ID); ok {
		m.touchConversation(confirmed)
	}

	m.logger.Debug("send confirmed",
		zap.String("temp_id", msg.TempID),
		zap.String("id", msg.Result.ID),
	)
	return m.scheduleTyping()
}
