// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/webchat-tui/internal/session"
	"github.com/jeranaias/webchat-tui/internal/ui/styles"
)

// Options configures the chat view.
type Options struct {
	// Markdown renders message bodies with glamour.
	Markdown bool
	// ShowTimestamps shows the clock time next to authors.
	ShowTimestamps bool
	// DefaultConversation is selected on start instead of the first one.
	DefaultConversation string
	// CharLimit caps the compose box. Zero means no limit.
	CharLimit int
	// Now is used for relative times in the sidebar.
	Now func() time.Time
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. All chat state lives in
// the session manager; the model only keeps view state.
type Model struct {
	mgr   *session.Manager
	theme *styles.Theme
	opts  Options

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	// selectedID is the highlighted message, or "".
	selectedID string

	// notice is a one-line feedback message for the last action.
	notice string

	// offsets maps message ids to their first line in the viewport.
	offsets map[string]int

	// followTail keeps the viewport pinned to the newest message.
	followTail bool

	markdown *markdownRenderer
}

// New creates a chat view over mgr.
func New(mgr *session.Manager, theme *styles.Theme, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = opts.CharLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	h := help.New()

	m := Model{
		mgr:        mgr,
		theme:      theme,
		opts:       opts,
		viewport:   viewport.New(80, 20),
		input:      ti,
		spinner:    sp,
		help:       h,
		keys:       DefaultKeyMap(),
		followTail: true,
	}
	if opts.Markdown {
		m.markdown = newMarkdownRenderer(theme.IsDark)
	}
	return m
}

// Init loads the conversation list and, if configured, the default
// conversation.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.mgr.Init()}
	if m.opts.DefaultConversation != "" {
		cmds = append(cmds, m.mgr.SelectConversation(m.opts.DefaultConversation))
	}
	return tea.Batch(cmds...)
}

// Manager returns the session manager behind the view.
func (m Model) Manager() *session.Manager {
	return m.mgr
}

// SelectedID returns the highlighted message id, or "".
func (m Model) SelectedID() string {
	return m.selectedID
}

// Notice returns the feedback line for the last action.
func (m Model) Notice() string {
	return m.notice
}

// InputValue returns the compose box content.
func (m Model) InputValue() string {
	return m.input.Value()
}
