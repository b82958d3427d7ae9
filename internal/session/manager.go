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
// CONFIGURATION
// =============================================================================

// Config holds tunables for the session manager.
type Config struct {
	// TypingDelay is how long after a confirmed send the typing indicator appears.
	TypingDelay time.Duration

	// TypingDuration is how long the indicator stays up. Zero disables it.
	TypingDuration time.Duration

	// MaxMessageLength is the rune limit for outgoing messages. Zero disables it.
	MaxMessageLength int

	// UnknownAuthorName is shown when a profile lookup fails.
	UnknownAuthorName string

	// RequestTimeout bounds each store call. Zero leaves it to the transport.
	RequestTimeout time.Duration

	// ProfileConcurrency limits parallel profile lookups.
	ProfileConcurrency int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		TypingDelay:        time.Second,
		TypingDuration:     3 * time.Second,
		MaxMessageLength:   4000,
		UnknownAuthorName:  "Unknown",
		ProfileConcurrency: 4,
	}
}

// Options wires a Manager to its collaborators.
type Options struct {
	Store    MessageStore
	Profiles ProfileResolver
	Identity IdentityProvider
	Logger   *zap.Logger
	Config   Config

	// Clock and NewTempID default to time.Now and model.NewTempID.
	Clock     func() time.Time
	NewTempID func() string
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the active conversation, its message list and the reply
// draft. It is confined to the Bubble Tea event loop: methods must be called
// from Update or before the program starts, and store calls run inside the
// commands it returns.
type Manager struct {
	store    MessageStore
	lister   ConversationLister
	watcher  MessageWatcher
	identity IdentityProvider
	profiles *profileCache
	logger   *zap.Logger
	cfg      Config

	now       func() time.Time
	newTempID func() string

	// Active conversation
	active      string
	epoch       uint64
	loadSeq     uint64
	loading     bool
	loadErr     *LoadError
	lastSendErr *SendError

	list  *Reconciler
	reply *ReplyTracker

	// confirmedIDs maps temporary ids to store ids for the active conversation.
	confirmedIDs map[string]string

	conversations []model.Conversation

	// Typing indicator
	typing    bool
	typingGen uint64

	feed   *feedCanceller
	outbox *outbox
}

// NewManager creates a session manager with no active conversation.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}

	cfg := opts.Config
	if cfg.UnknownAuthorName == "" {
		cfg.UnknownAuthorName = DefaultConfig().UnknownAuthorName
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("session")

	identity := opts.Identity
	if identity == nil {
		identity = StaticIdentity{}
	}

	m := &Manager{
		store:        opts.Store,
		identity:     identity,
		profiles:     newProfileCache(opts.Profiles, cfg.UnknownAuthorName, cfg.ProfileConcurrency, logger),
		logger:       logger,
		cfg:          cfg,
		now:          opts.Clock,
		newTempID:    opts.NewTempID,
		list:         NewReconciler(),
		reply:        NewReplyTracker(),
		confirmedIDs: make(map[string]string),
		feed:         newFeedCanceller(),
		outbox:       newOutbox(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newTempID == nil {
		m.newTempID = model.NewTempID
	}
	if l, ok := opts.Store.(ConversationLister); ok {
		m.lister = l
	}
	if w, ok := opts.Store.(MessageWatcher); ok {
		m.watcher = w
	}
	if id, ok := identity.Identity(); ok {
		m.profiles.seed(id.UserID, id.DisplayName)
	}
	return m, nil
}

// Close stops the realtime feed.
func (m *Manager) Close() {
	m.feed.cancel()
}

// =============================================================================
// STATE
// =============================================================================

// ActiveConversation returns the active conversation id, or "".
func (m *Manager) ActiveConversation() string {
	return m.active
}

// Messages returns a copy of the active message list.
func (m *Manager) Messages() []model.Message {
	return m.list.Messages()
}

// Message returns one entry of the active list.
func (m *Manager) Message(id string) (model.Message, bool) {
	return m.list.Get(id)
}

// Position returns the index of id in the active list, or -1.
func (m *Manager) Position(id string) int {
	return m.list.Index(id)
}

// Count returns the length of the active list.
func (m *Manager) Count() int {
	return m.list.Len()
}

// Sending reports whether at least one send is outstanding.
func (m *Manager) Sending() bool {
	return m.list.PendingCount() > 0
}

// Loading reports whether a history fetch is outstanding.
func (m *Manager) Loading() bool {
	return m.loading
}

// LoadError returns the last history failure of the active conversation.
func (m *Manager) LoadError() *LoadError {
	return m.loadErr
}

// LastSendError returns the most recent append failure.
func (m *Manager) LastSendError() *SendError {
	return m.lastSendErr
}

// Typing reports whether the typing indicator is shown.
func (m *Manager) Typing() bool {
	return m.typing
}

// Conversations returns the known conversation summaries.
func (m *Manager) Conversations() []model.Conversation {
	out := make([]model.Conversation, len(m.conversations))
	copy(out, m.conversations)
	return out
}

// Conversation returns the summary of one conversation.
func (m *Manager) Conversation(id string) (model.Conversation, bool) {
	for _, c := range m.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Identity returns the signed-in user.
func (m *Manager) Identity() (model.Identity, bool) {
	return m.identity.Identity()
}

// =============================================================================
// CONVERSATION SELECTION
// =============================================================================

// SelectConversation makes id the active conversation and loads its history.
// Selecting the active conversation again does nothing. In-flight sends of
// the previous conversation keep running; their results are discarded.
func (m *Manager) SelectConversation(id string) tea.Cmd {
	if id == "" || id == m.active {
		return nil
	}

	m.reply.Cancel()
	m.list.Clear()
	m.feed.cancel()
	m.epoch++
	m.active = id
	m.loadErr = nil
	m.lastSendErr = nil
	m.typing = false
	m.confirmedIDs = make(map[string]string)

	m.logger.Debug("conversation selected", zap.String("conversation", id), zap.Uint64("epoch", m.epoch))
	return m.LoadHistory()
}

// LoadHistory fetches the active conversation again. Only the newest load
// is applied.
func (m *Manager) LoadHistory() tea.Cmd {
	if m.active == "" {
		return nil
	}

	m.loadSeq++
	m.loading = true
	m.loadErr = nil

	epoch, seq, conv := m.epoch, m.loadSeq, m.active
	store, profiles, timeout := m.store, m.profiles, m.cfg.RequestTimeout

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		msgs, err := store.FetchMessages(ctx, conv)
		if err != nil {
			return HistoryLoadedMsg{Epoch: epoch, Seq: seq, ConversationID: conv, Err: err}
		}

		ids := make([]string, 0, len(msgs))
		for _, msg := range msgs {
			ids = append(ids, msg.AuthorID)
		}
		return HistoryLoadedMsg{
			Epoch:          epoch,
			Seq:            seq,
			ConversationID: conv,
			Messages:       msgs,
			Names:          profiles.resolveAll(ctx, ids),
		}
	}
}

// LoadConversations fetches the conversation list if the store supports it.
func (m *Manager) LoadConversations() tea.Cmd {
	if m.lister == nil {
		return nil
	}
	lister, timeout := m.lister, m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		convs, err := lister.ListConversations(ctx)
		return ConversationsLoadedMsg{Conversations: convs, Err: err}
	}
}

// =============================================================================
// REPLY DRAFT
// =============================================================================

// BeginReply snapshots the message with id as the reply target.
func (m *Manager) BeginReply(id string) error {
	msg, ok := m.list.Get(id)
	if !ok {
		return ErrMessageNotFound
	}
	m.reply.Begin(msg)
	return nil
}

// CancelReply drops the reply draft.
func (m *Manager) CancelReply() {
	m.reply.Cancel()
}

// ReplyDraft returns the current reply draft.
func (m *Manager) ReplyDraft() (model.ReplyReference, bool) {
	return m.reply.Draft()
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// Init loads the conversation list.
func (m *Manager) Init() tea.Cmd {
	return m.LoadConversations()
}

// Update applies a completion and returns any follow-up command. Messages
// not owned by the manager are ignored.
func (m *Manager) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		return m.handleHistory(msg)
	case SendResultMsg:
		return m.handleSendResult(msg)
	case RemoteMessageMsg:
		return m.handleRemote(msg)
	case ConversationsLoadedMsg:
		return m.handleConversations(msg)
	case watchStartedMsg:
		return m.handleWatchStarted(msg)
	case feedClosedMsg:
		if msg.epoch == m.epoch {
			m.logger.Debug("realtime feed closed", zap.String("conversation", m.active))
		}
		return nil
	case typingStartMsg:
		return m.handleTypingStart(msg)
	case typingStopMsg:
		m.handleTypingStop(msg)
		return nil
	}
	return nil
}

func (m *Manager) handleHistory(msg HistoryLoadedMsg) tea.Cmd {
	if msg.Epoch != m.epoch || msg.Seq != m.loadSeq || msg.ConversationID != m.active {
		m.discard("history", zap.String("conversation", msg.ConversationID), zap.Uint64("epoch", msg.Epoch))
		return nil
	}
	m.loading = false

	if msg.Err != nil {
		m.list.Clear()
		m.feed.cancel()
		m.loadErr = &LoadError{ConversationID: msg.ConversationID, Err: msg.Err}
		m.logger.Warn("history load failed", zap.String("conversation", msg.ConversationID), zap.Error(msg.Err))
		return nil
	}

	loaded := m.hydrate(msg.Messages, msg.Names)
	present := make(map[string]struct{}, len(loaded))
	for _, entry := range loaded {
		present[entry.ID] = struct{}{}
	}

	// Local entries the fetch did not include (sent while it was in flight)
	// are kept.
	prior := m.list.Messages()
	m.list.Replace(loaded)
	for _, entry := range prior {
		if _, ok := present[entry.ID]; ok || !entry.Author.IsLocal() {
			continue
		}
		if entry.SendState == model.StateConfirmed {
			m.list.AppendConfirmed(entry)
		} else {
			m.list.AppendPending(entry)
		}
	}

	var since time.Time
	if last, ok := m.list.Last(); ok {
		since = last.CreatedAt
		if last.SendState == model.StateConfirmed {
			m.touchConversation(last)
		}
	}

	m.logger.Debug("history loaded", zap.String("conversation", msg.ConversationID), zap.Int("messages", len(loaded)))
	return m.startFeed(since)
}

// hydrate converts fetched records into list entries. Reply snapshots come
// from the same fetch; a missing target yields a placeholder snapshot.
func (m *Manager) hydrate(remote []model.RemoteMessage, names map[string]string) []model.Message {
	out := make([]model.Message, 0, len(remote))
	byID := make(map[string]model.Message, len(remote))
	for _, r := range remote {
		entry := r.Confirmed(m.authorFor(r.AuthorID, names[r.AuthorID]))
		out = append(out, entry)
		byID[entry.ID] = entry
	}
	for i, r := range remote {
		if r.ReplyToID == "" {
			continue
		}
		if target, ok := byID[r.ReplyToID]; ok {
			ref := target.Snapshot()
			out[i].Reply = &ref
		} else {
			out[i].Reply = &model.ReplyReference{
				MessageID: r.ReplyToID,
				Author:    model.Author{Kind: model.AuthorRemote, DisplayName: m.cfg.UnknownAuthorName},
			}
		}
	}
	return out
}

// authorFor builds the author record for a store author id.
func (m *Manager) authorFor(authorID, name string) model.Author {
	if id, ok := m.identity.Identity(); ok && id.UserID == authorID {
		return id.Author()
	}
	if name == "" {
		name = m.cfg.UnknownAuthorName
	}
	return model.Author{ID: authorID, Kind: model.AuthorRemote, DisplayName: name}
}

func (m *Manager) handleConversations(msg ConversationsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		m.logger.Warn("conversation list failed", zap.Error(msg.Err))
		return nil
	}
	m.conversations = msg.Conversations
	if m.active == "" && len(m.conversations) > 0 {
		return m.SelectConversation(m.conversations[0].ID)
	}
	return nil
}

// touchConversation refreshes the summary of the active conversation.
func (m *Manager) touchConversation(msg model.Message) {
	for i := range m.conversations {
		if m.conversations[i].ID == m.active {
			m.conversations[i].Touch(msg)
			return
		}
	}
}

func (m *Manager) discard(kind string, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", kind), zap.Uint64("current_epoch", m.epoch), zap.Error(errStaleCompletion))
	m.logger.Debug("discarding completion", fields...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
