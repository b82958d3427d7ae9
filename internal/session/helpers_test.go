// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// FAKE STORE
// =============================================================================

var errOffline = errors.New("network unreachable")

type fakeStore struct {
	mu        sync.Mutex
	messages  map[string][]model.RemoteMessage
	convs     []model.Conversation
	names     map[string]string
	fetchErr  error
	appendErr error
	appends   []model.AppendRequest
	fetches   int
	nextID    int
	clock     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: make(map[string][]model.RemoteMessage),
		names:    map[string]string{"admin": "Admin", "bob": "Bob"},
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) FetchMessages(_ context.Context, conversationID string) ([]model.RemoteMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := make([]model.RemoteMessage, len(s.messages[conversationID]))
	copy(out, s.messages[conversationID])
	return out, nil
}

func (s *fakeStore) AppendMessage(_ context.Context, req model.AppendRequest) (model.AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends = append(s.appends, req)
	if s.appendErr != nil {
		return model.AppendResult{}, s.appendErr
	}
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	res := model.AppendResult{ID: fmt.Sprintf("srv_%d", s.nextID), CreatedAt: s.clock}
	s.messages[req.ConversationID] = append(s.messages[req.ConversationID], model.RemoteMessage{
		ID:             res.ID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		AuthorID:       req.AuthorID,
		CreatedAt:      res.CreatedAt,
		ReplyToID:      req.ReplyToID,
	})
	return res, nil
}

func (s *fakeStore) DisplayName(_ context.Context, authorID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.names[authorID]
	if !ok {
		return "", errors.New("profile not found")
	}
	return name, nil
}

func (s *fakeStore) ListConversations(context.Context) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convs, nil
}

func (s *fakeStore) seed(conversationID string, msgs ...model.RemoteMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range msgs {
		msgs[i].ConversationID = conversationID
	}
	s.messages[conversationID] = append(s.messages[conversationID], msgs...)
}

func (s *fakeStore) appendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appends)
}

func (s *fakeStore) setAppendErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

func (s *fakeStore) setFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// =============================================================================
// HELPERS
// =============================================================================

var testIdentity = model.Identity{UserID: "me", DisplayName: "Me"}

// testClock returns a clock that advances one millisecond per call.
func testClock() func() time.Time {
	now := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TypingDuration = 0
	return cfg
}

func newTestManager(t *testing.T, store *fakeStore) *Manager {
	t.Helper()
	seq := 0
	m, err := NewManager(Options{
		Store:    store,
		Profiles: store,
		Identity: StaticIdentity(testIdentity),
		Config:   testConfig(),
		Clock:    testClock(),
		NewTempID: func() string {
			seq++
			return fmt.Sprintf("%s%d", model.TempIDPrefix, seq)
		},
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// exec runs cmd and flattens batches into the resulting messages.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump runs cmd and feeds every resulting message back into the manager
// until no commands remain.
func pump(m *Manager, cmd tea.Cmd) {
	queue := exec(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		queue = append(queue, exec(m.Update(msg))...)
	}
}

// selectAndLoad selects a conversation and applies its history.
func selectAndLoad(t *testing.T, m *Manager, id string) {
	t.Helper()
	pump(m, m.SelectConversation(id))
	require.Equal(t, id, m.ActiveConversation())
	require.False(t, m.Loading())
}

func mustSend(t *testing.T, m *Manager, content string) tea.Cmd {
	t.Helper()
	cmd, err := m.Send(content)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	return cmd
}

func ids(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.ID
	}
	return out
}

func at(sec int) time.Time {
	return time.Date(2025, 1, 1, 10, 0, sec, 0, time.UTC)
}
