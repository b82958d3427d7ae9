// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TypingDelay != time.Second {
		t.Errorf("Default TypingDelay = %v, want 1s", cfg.TypingDelay)
	}
	if cfg.TypingDuration != 3*time.Second {
		t.Errorf("Default TypingDuration = %v, want 3s", cfg.TypingDuration)
	}
	if cfg.MaxMessageLength != 4000 {
		t.Errorf("Default MaxMessageLength = %d, want 4000", cfg.MaxMessageLength)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("Default RequestTimeout = %v, want none", cfg.RequestTimeout)
	}
}

func TestNewManager_RequiresStore(t *testing.T) {
	_, err := NewManager(Options{})
	assert.ErrorIs(t, err, ErrNoStore)
}

// =============================================================================
// CONVERSATION SELECTION
// =============================================================================

func TestSelectConversation_LoadsHistory(t *testing.T) {
	store := newFakeStore()
	store.seed("general",
		model.RemoteMessage{ID: "m2", Content: "second", AuthorID: "bob", CreatedAt: at(2)},
		model.RemoteMessage{ID: "m1", Content: "Welcome!", AuthorID: "admin", CreatedAt: at(1)},
	)
	m := newTestManager(t, store)

	cmd := m.SelectConversation("general")
	require.NotNil(t, cmd)
	assert.True(t, m.Loading())
	pump(m, cmd)

	msgs := m.Messages()
	require.Equal(t, []string{"m1", "m2"}, ids(msgs))
	assert.Equal(t, "Admin", msgs[0].Author.DisplayName)
	assert.Equal(t, model.AuthorRemote, msgs[0].Author.Kind)
	assert.Nil(t, m.LoadError())
}

func TestManager_PositionAndCount(t *testing.T) {
	store := newFakeStore()
	store.seed("general",
		model.RemoteMessage{ID: "m1", Content: "one", AuthorID: "admin", CreatedAt: at(1)},
		model.RemoteMessage{ID: "m2", Content: "two", AuthorID: "bob", CreatedAt: at(2)},
	)
	m := newTestManager(t, store)
	assert.Zero(t, m.Count())

	pump(m, m.SelectConversation("general"))
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 0, m.Position("m1"))
	assert.Equal(t, 1, m.Position("m2"))
	assert.Equal(t, -1, m.Position("missing"))
}

func TestSelectConversation_SameIDIsNoop(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "general")
	require.NoError(t, beginReplyToFirst(t, m))

	assert.Nil(t, m.SelectConversation("general"))
	_, ok := m.ReplyDraft()
	assert.True(t, ok, "draft survives re-selecting the active conversation")
	assert.Equal(t, 1, store.fetches)
}

func TestSelectConversation_SwitchBackReloadsFresh(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "in a", AuthorID: "bob", CreatedAt: at(1)})
	store.seed("b", model.RemoteMessage{ID: "b1", Content: "in b", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)

	selectAndLoad(t, m, "a")
	selectAndLoad(t, m, "b")
	assert.Equal(t, []string{"b1"}, ids(m.Messages()))

	cmd := m.SelectConversation("a")
	assert.Empty(t, m.Messages(), "list discarded before the reload completes")
	pump(m, cmd)

	assert.Equal(t, []string{"a1"}, ids(m.Messages()))
	assert.Equal(t, 3, store.fetches)
}

func TestSelectConversation_DiscardsStaleHistory(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "in a", AuthorID: "bob", CreatedAt: at(1)})
	store.seed("b", model.RemoteMessage{ID: "b1", Content: "in b", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)

	slowA := exec(m.SelectConversation("a"))
	selectAndLoad(t, m, "b")

	for _, msg := range slowA {
		assert.Nil(t, m.Update(msg))
	}
	assert.Equal(t, []string{"b1"}, ids(m.Messages()), "late history of a must not leak into b")
}

func TestSelectConversation_CancelsReply(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "hi", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	require.NoError(t, m.BeginReply("a1"))
	m.SelectConversation("b")

	_, ok := m.ReplyDraft()
	assert.False(t, ok)
}

func TestLoadHistory_FailureClearsList(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "hi", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")
	require.Len(t, m.Messages(), 1)

	store.setFetchErr(errOffline)
	pump(m, m.LoadHistory())

	assert.Empty(t, m.Messages())
	loadErr := m.LoadError()
	require.NotNil(t, loadErr)
	assert.Equal(t, "a", loadErr.ConversationID)
	assert.ErrorIs(t, loadErr, errOffline)

	store.setFetchErr(nil)
	pump(m, m.LoadHistory())
	assert.Len(t, m.Messages(), 1)
	assert.Nil(t, m.LoadError())
}

func TestLoadHistory_OnlyNewestApplies(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	older := exec(m.LoadHistory())
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "new", AuthorID: "bob", CreatedAt: at(1)})
	pump(m, m.LoadHistory())

	for _, msg := range older {
		m.Update(msg)
	}
	assert.Equal(t, []string{"a1"}, ids(m.Messages()))
}

func TestLoadHistory_KeepsPendingSends(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "hi", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)

	load := exec(m.SelectConversation("a"))
	send := mustSend(t, m, "typed while loading")
	for _, msg := range load {
		m.Update(msg)
	}

	msgs := m.Messages()
	require.Equal(t, []string{"a1", "tmp_1"}, ids(msgs))
	assert.True(t, msgs[1].IsPending())

	pump(m, send)
	assert.Equal(t, []string{"a1", "srv_1"}, ids(m.Messages()))
}

func TestLoadHistory_ReplySnapshots(t *testing.T) {
	store := newFakeStore()
	store.seed("a",
		model.RemoteMessage{ID: "a1", Content: "Welcome!", AuthorID: "admin", CreatedAt: at(1)},
		model.RemoteMessage{ID: "a2", Content: "Thanks!", AuthorID: "me", CreatedAt: at(2), ReplyToID: "a1"},
		model.RemoteMessage{ID: "a3", Content: "orphan", AuthorID: "ghost", CreatedAt: at(3), ReplyToID: "gone"},
	)
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	msgs := m.Messages()
	require.Len(t, msgs, 3)

	require.NotNil(t, msgs[1].Reply)
	assert.Equal(t, model.ReplyReference{
		MessageID: "a1",
		Content:   "Welcome!",
		Author:    model.Author{ID: "admin", Kind: model.AuthorRemote, DisplayName: "Admin"},
	}, *msgs[1].Reply)
	assert.True(t, msgs[1].Author.IsLocal(), "own messages are attributed to the local user")

	assert.Equal(t, "Unknown", msgs[2].Author.DisplayName, "failed profile lookup degrades to placeholder")
	require.NotNil(t, msgs[2].Reply)
	assert.Equal(t, "gone", msgs[2].Reply.MessageID)
	assert.Empty(t, msgs[2].Reply.Content)
}

// =============================================================================
// SEND PIPELINE
// =============================================================================

func TestSend_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		active  bool
		ident   model.Identity
		want    error
	}{
		{"empty", "", true, testIdentity, ErrEmptyContent},
		{"whitespace", "  \t\n ", true, testIdentity, ErrEmptyContent},
		{"no conversation", "hello", false, testIdentity, ErrNoConversation},
		{"no identity", "hello", true, model.Identity{}, ErrUnauthenticated},
		{"too long", strings.Repeat("x", 4001), true, testIdentity, ErrContentTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			m, err := NewManager(Options{Store: store, Identity: StaticIdentity(tc.ident), Config: testConfig()})
			require.NoError(t, err)
			if tc.active {
				selectAndLoad(t, m, "a")
			}

			cmd, err := m.Send(tc.content)
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, tc.want)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Empty(t, m.Messages(), "no pending entry for rejected input")
			assert.False(t, m.Sending())
			assert.Zero(t, store.appendCount(), "store never called")
		})
	}
}

func TestSend_LengthCountsCharacters(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	// 4000 two-byte characters fit the 4000 character limit.
	pump(m, mustSend(t, m, strings.Repeat("é", 4000)))
	assert.Equal(t, 1, store.appendCount())

	_, err := m.Send(strings.Repeat("é", 4001))
	assert.ErrorIs(t, err, ErrContentTooLong)
}

func TestSend_TrimsAndNormalises(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	pump(m, mustSend(t, m, "  café  "))

	require.Equal(t, 1, store.appendCount())
	assert.Equal(t, "café", store.appends[0].Content)
	assert.Equal(t, "me", store.appends[0].AuthorID)
}

func TestSend_SuccessReplacesInPlace(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "hi", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	cmd := mustSend(t, m, "hello")
	msgs := m.Messages()
	require.Equal(t, []string{"a1", "tmp_1"}, ids(msgs))
	assert.True(t, msgs[1].IsPending())
	assert.True(t, m.Sending())

	pump(m, cmd)

	msgs = m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "srv_1", msgs[1].ID)
	assert.Equal(t, model.StateConfirmed, msgs[1].SendState)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.False(t, m.Sending())
}

func TestSend_FailureKeepsDraft(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "a1", Content: "hi", AuthorID: "bob", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")
	require.NoError(t, m.BeginReply("a1"))

	store.setAppendErr(errOffline)
	pump(m, mustSend(t, m, "hello"))

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "tmp_1", msgs[1].ID)
	assert.Equal(t, model.StateFailed, msgs[1].SendState)
	assert.Equal(t, errOffline.Error(), msgs[1].FailReason)

	draft, ok := m.ReplyDraft()
	require.True(t, ok, "draft kept after failure")
	assert.Equal(t, "a1", draft.MessageID)

	sendErr := m.LastSendError()
	require.NotNil(t, sendErr)
	assert.ErrorIs(t, sendErr, errOffline)
	assert.False(t, m.Sending())
}

func TestSend_ReplyScenario(t *testing.T) {
	store := newFakeStore()
	store.seed("general", model.RemoteMessage{ID: "m1", Content: "Welcome!", AuthorID: "admin", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "general")

	require.NoError(t, m.BeginReply("m1"))
	pump(m, mustSend(t, m, "Thanks!"))

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	reply := msgs[1].Reply
	require.NotNil(t, reply)
	assert.Equal(t, "m1", reply.MessageID)
	assert.Equal(t, "Welcome!", reply.Content)
	assert.Equal(t, "Admin", reply.Author.DisplayName)

	_, ok := m.ReplyDraft()
	assert.False(t, ok, "draft cleared after confirmation")
	assert.Equal(t, "m1", store.appends[0].ReplyToID)
}

func TestSend_DraftStaysUntilConfirmed(t *testing.T) {
	store := newFakeStore()
	store.seed("general", model.RemoteMessage{ID: "m1", Content: "Welcome!", AuthorID: "admin", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "general")

	require.NoError(t, m.BeginReply("m1"))
	cmd := mustSend(t, m, "Thanks!")

	_, ok := m.ReplyDraft()
	assert.True(t, ok, "draft active while the send is pending")

	pump(m, cmd)
	_, ok = m.ReplyDraft()
	assert.False(t, ok)
}

func TestSend_NewerDraftNotCleared(t *testing.T) {
	store := newFakeStore()
	store.seed("general",
		model.RemoteMessage{ID: "m1", Content: "one", AuthorID: "admin", CreatedAt: at(1)},
		model.RemoteMessage{ID: "m2", Content: "two", AuthorID: "bob", CreatedAt: at(2)},
	)
	m := newTestManager(t, store)
	selectAndLoad(t, m, "general")

	require.NoError(t, m.BeginReply("m1"))
	cmd := mustSend(t, m, "re one")
	require.NoError(t, m.BeginReply("m2"))
	pump(m, cmd)

	draft, ok := m.ReplyDraft()
	require.True(t, ok)
	assert.Equal(t, "m2", draft.MessageID)
}

func TestSend_OfflineResendScenario(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	store.setAppendErr(errOffline)
	pump(m, mustSend(t, m, "hello"))
	require.Equal(t, model.StateFailed, m.Messages()[0].SendState)

	_, err := m.Resend("nope")
	assert.ErrorIs(t, err, ErrMessageNotFound)

	store.setAppendErr(nil)
	cmd, err := m.Resend("tmp_1")
	require.NoError(t, err)

	msgs := m.Messages()
	require.Equal(t, []string{"tmp_2"}, ids(msgs), "failed entry superseded by the new attempt")
	assert.True(t, msgs[0].IsPending())
	assert.Equal(t, "hello", msgs[0].Content)

	pump(m, cmd)
	msgs = m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.StateConfirmed, msgs[0].SendState)
	assert.Equal(t, 2, store.appendCount())
}

func TestResend_RejectsNonFailed(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	cmd := mustSend(t, m, "hello")
	_, err := m.Resend("tmp_1")
	assert.ErrorIs(t, err, ErrNotResendable)
	pump(m, cmd)
}

func TestResend_KeepsReplySnapshot(t *testing.T) {
	store := newFakeStore()
	store.seed("a", model.RemoteMessage{ID: "m1", Content: "Welcome!", AuthorID: "admin", CreatedAt: at(1)})
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	require.NoError(t, m.BeginReply("m1"))
	store.setAppendErr(errOffline)
	pump(m, mustSend(t, m, "Thanks!"))
	m.CancelReply()

	store.setAppendErr(nil)
	cmd, err := m.Resend("tmp_1")
	require.NoError(t, err)
	pump(m, cmd)

	msgs := m.Messages()
	require.NotNil(t, msgs[1].Reply)
	assert.Equal(t, "m1", msgs[1].Reply.MessageID)
	assert.Equal(t, "m1", store.appends[1].ReplyToID)
}

func TestSend_TwoRapidSends(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	cmdA := mustSend(t, m, "a")
	cmdB, err := m.Send("b")
	require.NoError(t, err)
	assert.Nil(t, cmdB, "b waits until a has been appended")

	msgs := m.Messages()
	require.Equal(t, []string{"tmp_1", "tmp_2"}, ids(msgs))
	assert.True(t, msgs[0].IsPending())
	assert.True(t, msgs[1].IsPending())

	resultA := exec(cmdA)
	require.Len(t, resultA, 1)
	assert.Equal(t, 1, store.appendCount())

	next := m.Update(resultA[0])
	msgs = m.Messages()
	assert.Equal(t, []string{"srv_1", "tmp_2"}, ids(msgs))
	assert.True(t, m.Sending())

	pump(m, next)
	msgs = m.Messages()
	assert.Equal(t, []string{"srv_1", "srv_2"}, ids(msgs))
	assert.Equal(t, []string{"a", "b"}, []string{msgs[0].Content, msgs[1].Content})
	assert.Equal(t, model.StateConfirmed, msgs[0].SendState)
	assert.Equal(t, model.StateConfirmed, msgs[1].SendState)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))
	assert.False(t, m.Sending())

	require.Equal(t, 2, store.appendCount())
	assert.Equal(t, "a", store.appends[0].Content)
	assert.Equal(t, "b", store.appends[1].Content)
}

func TestSend_AppendsReachStoreInWrittenOrder(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	var cmds []tea.Cmd
	for _, content := range []string{"one", "two", "three"} {
		cmd, err := m.Send(content)
		require.NoError(t, err)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	require.Len(t, cmds, 1, "only the first append is issued")

	// Running everything that is runnable, newest first, cannot let a later
	// message overtake an earlier one.
	for len(cmds) > 0 {
		last := cmds[len(cmds)-1]
		cmds = cmds[:len(cmds)-1]
		for _, msg := range exec(last) {
			if next := m.Update(msg); next != nil {
				cmds = append(cmds, next)
			}
		}
	}

	msgs := m.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	for _, msg := range msgs {
		assert.Equal(t, model.StateConfirmed, msg.SendState)
	}
	assert.Equal(t, []string{"one", "two", "three"},
		[]string{store.appends[0].Content, store.appends[1].Content, store.appends[2].Content})
}

func TestSend_FailureDoesNotStallQueue(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	store.setAppendErr(errOffline)
	first := mustSend(t, m, "a")
	_, err := m.Send("b")
	require.NoError(t, err)

	result := exec(first)
	store.setAppendErr(nil)
	pump(m, m.Update(result[0]))

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Content)
	assert.True(t, msgs[0].IsFailed())
	assert.Equal(t, "b", msgs[1].Content)
	assert.Equal(t, model.StateConfirmed, msgs[1].SendState)
	assert.False(t, m.Sending())
}

func TestSend_QueueSurvivesSwitch(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	first := mustSend(t, m, "x")
	_, err := m.Send("y")
	require.NoError(t, err)
	selectAndLoad(t, m, "b")

	late := exec(first)
	require.Len(t, late, 1)
	pump(m, m.Update(late[0]))

	assert.Empty(t, m.Messages(), "results for a never land in b")
	require.Equal(t, 2, store.appendCount(), "queued append still reaches the store")
	assert.Equal(t, "y", store.appends[1].Content)
	assert.Equal(t, "a", store.appends[1].ConversationID)

	cmd := mustSend(t, m, "in b")
	pump(m, cmd)
	assert.Equal(t, 3, store.appendCount())
}

func TestSend_ResultAfterSwitchDiscarded(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	late := exec(mustSend(t, m, "for a"))
	selectAndLoad(t, m, "b")

	for _, msg := range late {
		assert.Nil(t, m.Update(msg))
	}
	assert.Empty(t, m.Messages(), "result for a never lands in b")
	assert.Nil(t, m.LastSendError())
}

func TestSend_ReplyToPendingMessage(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	first := mustSend(t, m, "first")
	require.NoError(t, m.BeginReply("tmp_1"))
	second, err := m.Send("second")
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Empty(t, store.appends, "nothing executed yet")
	pump(m, first)

	require.Equal(t, 2, store.appendCount())
	assert.Equal(t, "srv_1", store.appends[1].ReplyToID, "target confirmed before the reply was appended")
	msgs := m.Messages()
	require.NotNil(t, msgs[1].Reply)
	assert.Equal(t, "tmp_1", msgs[1].Reply.MessageID, "local snapshot stays frozen")
	assert.Equal(t, "first", msgs[1].Reply.Content)
}

func TestSend_ReplyToFailedMessage(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	store.setAppendErr(errOffline)
	first := mustSend(t, m, "first")
	require.NoError(t, m.BeginReply("tmp_1"))
	_, err := m.Send("second")
	require.NoError(t, err)

	result := exec(first)
	store.setAppendErr(nil)
	pump(m, m.Update(result[0]))

	require.Equal(t, 2, store.appendCount())
	assert.Empty(t, store.appends[1].ReplyToID, "unconfirmed target is not referenced remotely")
	msgs := m.Messages()
	require.NotNil(t, msgs[1].Reply)
	assert.Equal(t, "tmp_1", msgs[1].Reply.MessageID)
}

// =============================================================================
// REALTIME FEED
// =============================================================================

func TestRemoteMessage_AppendedInOrder(t *testing.T) {
	store := newFakeStore()
	store.seed("a",
		model.RemoteMessage{ID: "a1", Content: "one", AuthorID: "bob", CreatedAt: at(1)},
		model.RemoteMessage{ID: "a3", Content: "three", AuthorID: "bob", CreatedAt: at(3)},
	)
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	m.Update(RemoteMessageMsg{
		Epoch:      m.epoch,
		Message:    model.RemoteMessage{ID: "a2", ConversationID: "a", Content: "two", AuthorID: "bob", CreatedAt: at(2), ReplyToID: "a1"},
		AuthorName: "Bob",
	})

	msgs := m.Messages()
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids(msgs))
	require.NotNil(t, msgs[1].Reply)
	assert.Equal(t, "one", msgs[1].Reply.Content)
}

func TestRemoteMessage_EchoBeforeSendResult(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")

	result := exec(mustSend(t, m, "hello"))
	require.Len(t, result, 1)
	res := result[0].(SendResultMsg)

	m.Update(RemoteMessageMsg{
		Epoch:   m.epoch,
		Message: model.RemoteMessage{ID: res.Result.ID, ConversationID: "a", Content: "hello", AuthorID: "me", CreatedAt: res.Result.CreatedAt},
	})
	require.Len(t, m.Messages(), 2)

	m.Update(res)
	msgs := m.Messages()
	require.Len(t, msgs, 1, "no duplicate once the append confirms")
	assert.Equal(t, res.Result.ID, msgs[0].ID)
	assert.True(t, msgs[0].Author.IsLocal())
	assert.False(t, m.Sending())
}

func TestRemoteMessage_StaleEpochIgnored(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	selectAndLoad(t, m, "a")
	old := m.epoch
	selectAndLoad(t, m, "b")

	m.Update(RemoteMessageMsg{
		Epoch:   old,
		Message: model.RemoteMessage{ID: "x", ConversationID: "a", Content: "late", AuthorID: "bob", CreatedAt: at(1)},
	})
	assert.Empty(t, m.Messages())
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestConversations_AutoSelectFirst(t *testing.T) {
	store := newFakeStore()
	store.convs = []model.Conversation{{ID: "general", DisplayName: "General"}, {ID: "random", DisplayName: "Random Chat"}}
	store.seed("general", model.RemoteMessage{ID: "g1", Content: "hi", AuthorID: "admin", CreatedAt: at(1)})
	m := newTestManager(t, store)

	pump(m, m.Init())

	assert.Equal(t, "general", m.ActiveConversation())
	require.Len(t, m.Conversations(), 2)
	conv, ok := m.Conversation("general")
	require.True(t, ok)
	assert.Equal(t, "hi", conv.LastMessagePreview)
}

func TestConversations_SummaryUpdatedOnSend(t *testing.T) {
	store := newFakeStore()
	store.convs = []model.Conversation{{ID: "general", DisplayName: "General"}}
	m := newTestManager(t, store)
	pump(m, m.Init())

	pump(m, mustSend(t, m, "latest news"))

	conv, _ := m.Conversation("general")
	assert.Equal(t, "latest news", conv.LastMessagePreview)
	assert.False(t, conv.LastActivityAt.IsZero())
}

// =============================================================================
// TYPING INDICATOR
// =============================================================================

func TestTyping_AfterConfirmedSend(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	m.cfg.TypingDelay = time.Millisecond
	m.cfg.TypingDuration = time.Millisecond
	selectAndLoad(t, m, "a")

	result := exec(mustSend(t, m, "hello"))
	tick := m.Update(result[0])
	require.NotNil(t, tick, "confirmed send schedules the indicator")
	assert.False(t, m.Typing())

	start := exec(tick)
	require.Len(t, start, 1)
	stop := m.Update(start[0])
	assert.True(t, m.Typing())

	pump(m, stop)
	assert.False(t, m.Typing())
}

func TestTyping_RestartedBySecondSend(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	m.cfg.TypingDuration = time.Second
	selectAndLoad(t, m, "a")

	m.Update(exec(mustSend(t, m, "one"))[0])
	firstGen := m.typingGen
	m.Update(exec(mustSend(t, m, "two"))[0])

	m.Update(typingStartMsg{epoch: m.epoch, gen: firstGen})
	assert.False(t, m.Typing(), "superseded timer ignored")

	m.Update(typingStartMsg{epoch: m.epoch, gen: m.typingGen})
	assert.True(t, m.Typing())

	m.SelectConversation("b")
	assert.False(t, m.Typing(), "switch hides the indicator")
}

func TestTyping_FailedSendDoesNotSchedule(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store)
	m.cfg.TypingDuration = time.Second
	selectAndLoad(t, m, "a")

	store.setAppendErr(errOffline)
	result := exec(mustSend(t, m, "hello"))
	assert.Nil(t, m.Update(result[0]))
}

// =============================================================================
// HELPERS
// =============================================================================

// beginReplyToFirst starts a reply to the first message, seeding one if the
// list is empty.
func beginReplyToFirst(t *testing.T, m *Manager) error {
	t.Helper()
	if m.list.Len() == 0 {
		m.list.AppendConfirmed(model.Message{ID: "seed", Content: "seed", CreatedAt: at(0)})
	}
	return m.BeginReply(m.list.Messages()[0].ID)
}
