// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// linemodel.go - Headless Bubble Tea model behind line mode.
//
// The REPL goroutine only reads lines; every line is delivered to this model
// as a lineInput so that all session state is touched from the program's
// event loop, exactly as in the full-screen interface.

package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/session"
	"github.com/jeranaias/webchat-tui/internal/util"
)

const lineHelp = `Commands:
  /list              List conversations
  /switch <n|id>     Open a conversation
  /messages          Show the open conversation again
  /reply <n>         Reply to message n
  /cancel            Cancel the reply
  /retry [n]         Resend failed message n (default: the last one)
  /reload            Fetch history and conversations again
  /help              Show this help
  /quit              Exit (waits for messages still sending)
Anything else is sent as a message.`

// lineInput is one line typed at the prompt. done receives true once the
// REPL should stop reading.
type lineInput struct {
	text string
	done chan<- bool
}

// lineOptions configures line mode.
type lineOptions struct {
	Highlight           bool
	DefaultConversation string
	Now                 func() time.Time
}

// lineModel prints session changes as they happen.
type lineModel struct {
	mgr  *session.Manager
	out  io.Writer
	opts lineOptions

	// shown holds ids already printed for the active conversation.
	shown  map[string]struct{}
	active string
	typing bool

	listLoaded bool
	ready      chan struct{}
	isReady    bool
	quitting   bool
}

func newLineModel(mgr *session.Manager, out io.Writer, opts lineOptions) *lineModel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &lineModel{
		mgr:   mgr,
		out:   out,
		opts:  opts,
		shown: make(map[string]struct{}),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the first conversation is loaded, or once it is
// clear there is none to load.
func (m *lineModel) Ready() <-chan struct{} {
	return m.ready
}

func (m *lineModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.mgr.Init()}
	if m.opts.DefaultConversation != "" {
		cmds = append(cmds, m.mgr.SelectConversation(m.opts.DefaultConversation))
	}
	return tea.Batch(cmds...)
}

func (m *lineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case lineInput:
		cmd = m.handleInput(msg.text)
		msg.done <- m.quitting

	case session.HistoryLoadedMsg:
		cmd = m.mgr.Update(msg)
		if msg.ConversationID == m.mgr.ActiveConversation() && !m.mgr.Loading() {
			if loadErr := m.mgr.LoadError(); loadErr != nil {
				m.printf("%s %v (/reload to retry)\n", RenderConditional(ErrorStyle, "Couldn't load messages:"), loadErr.Err)
			}
		}
		m.report(true)

	case session.SendResultMsg:
		cmd = m.mgr.Update(msg)
		if entry, ok := m.mgr.Message(msg.TempID); ok && entry.IsFailed() {
			m.printf("%s %s (/retry %d)\n",
				RenderConditional(ErrorStyle, entry.SendState.Marker()+" Message not sent:"), entry.FailReason, m.number(entry.ID))
		} else if msg.Err == nil {
			m.shown[msg.Result.ID] = struct{}{}
		}
		m.report(false)

	case session.ConversationsLoadedMsg:
		m.listLoaded = true
		if msg.Err != nil {
			m.printf("%s %v\n", RenderConditional(WarningStyle, "Couldn't list conversations:"), msg.Err)
		}
		cmd = m.mgr.Update(msg)
		m.report(false)

	default:
		cmd = m.mgr.Update(msg)
		m.report(false)
	}

	m.checkReady()
	if m.quitting && !m.mgr.Sending() {
		return m, tea.Quit
	}
	return m, cmd
}

// View renders nothing; output is printed as events arrive.
func (m *lineModel) View() string {
	return ""
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *lineModel) handleInput(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !strings.HasPrefix(text, "/") {
		cmd, err := m.mgr.Send(text)
		if err != nil && !errors.Is(err, session.ErrEmptyContent) {
			m.printf("%s %v\n", RenderConditional(ErrorStyle, "Not sent:"), err)
		}
		return cmd
	}

	fields := strings.Fields(text)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/help", "/h":
		m.printf("%s\n", lineHelp)

	case "/list", "/ls":
		m.printConversations()

	case "/switch", "/s":
		return m.switchTo(arg)

	case "/messages", "/m":
		m.printAll()

	case "/reply", "/r":
		msg, ok := m.messageAt(arg)
		if !ok {
			m.printf("Usage: /reply <n>\n")
			return nil
		}
		if err := m.mgr.BeginReply(msg.ID); err != nil {
			m.printf("%s %v\n", RenderConditional(ErrorStyle, "Can't reply:"), err)
			return nil
		}
		draft, _ := m.mgr.ReplyDraft()
		m.printf("%s %s: %s\n", RenderConditional(DimStyle, "Replying to"),
			draft.Author.Label(), util.SingleLine(draft.Preview(50)))

	case "/cancel":
		if _, ok := m.mgr.ReplyDraft(); ok {
			m.mgr.CancelReply()
			m.printf("Reply cancelled.\n")
		}

	case "/retry":
		return m.retry(arg)

	case "/reload":
		return tea.Batch(m.mgr.LoadHistory(), m.mgr.LoadConversations())

	case "/quit", "/q", "/exit":
		m.quitting = true
		if n := m.pendingCount(); n > 0 {
			m.printf("Waiting for %d message(s) to send...\n", n)
		}

	default:
		m.printf("Unknown command %s. Type /help for commands.\n", fields[0])
	}
	return nil
}

func (m *lineModel) switchTo(arg string) tea.Cmd {
	if arg == "" {
		m.printf("Usage: /switch <n|id>\n")
		return nil
	}
	id := arg
	convs := m.mgr.Conversations()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(convs) {
		id = convs[n-1].ID
	}
	cmd := m.mgr.SelectConversation(id)
	if cmd == nil {
		m.printf("Already in %s.\n", m.title(id))
	}
	return cmd
}

func (m *lineModel) retry(arg string) tea.Cmd {
	var id string
	if arg != "" {
		msg, ok := m.messageAt(arg)
		if !ok {
			m.printf("Usage: /retry [n]\n")
			return nil
		}
		id = msg.ID
	} else {
		msgs := m.mgr.Messages()
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].IsFailed() {
				id = msgs[i].ID
				break
			}
		}
		if id == "" {
			m.printf("Nothing to retry.\n")
			return nil
		}
	}

	cmd, err := m.mgr.Resend(id)
	if err != nil {
		m.printf("%s %v\n", RenderConditional(ErrorStyle, "Can't retry:"), err)
		return nil
	}
	return cmd
}

// =============================================================================
// OUTPUT
// =============================================================================

// report prints messages not yet shown. Local messages are printed only on
// a history load; the user has just typed the others.
func (m *lineModel) report(loaded bool) {
	active := m.mgr.ActiveConversation()
	if active != m.active {
		if !loaded || m.mgr.Loading() {
			return
		}
		m.active = active
		m.shown = make(map[string]struct{})
		m.typing = false
		m.printf("\n%s\n", RenderConditional(TitleStyle, "== "+m.title(active)+" =="))
	}

	for i, msg := range m.mgr.Messages() {
		if _, ok := m.shown[msg.ID]; ok || msg.IsPending() || msg.IsFailed() {
			continue
		}
		m.shown[msg.ID] = struct{}{}
		if msg.Author.IsLocal() && !loaded {
			continue
		}
		m.printMessage(i+1, msg)
	}

	if typing := m.mgr.Typing(); typing != m.typing {
		m.typing = typing
		if typing {
			m.printf("%s\n", RenderConditional(DimStyle, "Someone is typing..."))
		}
	}
}

func (m *lineModel) printAll() {
	if m.mgr.ActiveConversation() == "" {
		m.printf("No conversation open. Use /list and /switch.\n")
		return
	}
	msgs := m.mgr.Messages()
	if len(msgs) == 0 {
		m.printf("No messages yet.\n")
	}
	for i, msg := range msgs {
		m.printMessage(i+1, msg)
	}
}

func (m *lineModel) printMessage(n int, msg model.Message) {
	authorStyle := AuthorStyle
	if msg.Author.IsLocal() {
		authorStyle = SelfStyle
	}

	header := fmt.Sprintf("[%d] %s %s", n,
		RenderConditional(authorStyle, msg.Author.Label()),
		RenderConditional(DimStyle, msg.Clock()))
	switch {
	case msg.IsPending():
		header += " " + RenderConditional(DimStyle, msg.SendState.Marker()+" sending")
	case msg.IsFailed():
		header += " " + RenderConditional(ErrorStyle, msg.SendState.Marker()+" "+msg.FailReason)
	}
	m.printf("%s\n", header)

	if msg.Reply != nil {
		quote := msg.Reply.Author.Label() + ": " + util.SingleLine(msg.Reply.Preview(60))
		m.printf("    %s\n", RenderConditional(DimStyle, "> "+quote))
	}

	body := msg.Content
	if m.opts.Highlight {
		body = highlightBody(body)
	}
	for _, line := range strings.Split(body, "\n") {
		m.printf("    %s\n", line)
	}
}

func (m *lineModel) printConversations() {
	convs := m.mgr.Conversations()
	if len(convs) == 0 {
		m.printf("No conversations.\n")
		return
	}
	now := m.opts.Now()
	for i, conv := range convs {
		marker := " "
		if conv.ID == m.mgr.ActiveConversation() {
			marker = "*"
		}
		when := ""
		if !conv.LastActivityAt.IsZero() {
			when = humanize.RelTime(conv.LastActivityAt, now, "ago", "from now")
		}
		m.printf("%s %d. %s %s\n", marker, i+1,
			util.PadRight(util.TruncateWidth(conv.Title(), 28), 28), RenderConditional(DimStyle, when))
		if conv.LastMessagePreview != "" {
			m.printf("     %s\n", RenderConditional(DimStyle, util.TruncateWidth(util.SingleLine(conv.LastMessagePreview), 60)))
		}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *lineModel) checkReady() {
	if m.isReady {
		return
	}
	active := m.mgr.ActiveConversation()
	if (active != "" && !m.mgr.Loading()) || (active == "" && m.listLoaded) {
		m.isReady = true
		close(m.ready)
	}
}

func (m *lineModel) messageAt(arg string) (model.Message, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > m.mgr.Count() {
		return model.Message{}, false
	}
	return m.mgr.Messages()[n-1], true
}

// number returns the 1-based position of id, or 0.
func (m *lineModel) number(id string) int {
	return m.mgr.Position(id) + 1
}

func (m *lineModel) pendingCount() int {
	n := 0
	for _, msg := range m.mgr.Messages() {
		if msg.IsPending() {
			n++
		}
	}
	return n
}

func (m *lineModel) title(id string) string {
	if conv, ok := m.mgr.Conversation(id); ok {
		return conv.Title()
	}
	return id
}

func (m *lineModel) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}
