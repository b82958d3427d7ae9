// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/ui/styles"
	"github.com/jeranaias/webchat-tui/internal/util"
)

// composeControls are the attachment and emoji buttons. They do nothing.
const composeControls = "[+] [:)]"

const (
	quotePreviewLength  = 60
	bannerPreviewLength = 50
)

// View renders the chat interface.
func (m Model) View() string {
	body := m.viewport.View()
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(m.viewport.Height), body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	active := m.mgr.ActiveConversation()
	if active == "" {
		return t.Header.Width(m.width).Render(
			t.HeaderTitle.Render("webchat") + "  " + t.MutedText.Render("Select a conversation (tab)"))
	}

	conv, ok := m.mgr.Conversation(active)
	if !ok {
		conv = model.Conversation{ID: active}
	}

	var status string
	switch {
	case m.mgr.Loading():
		status = m.spinner.View() + t.MutedText.Render(" Loading...")
	case m.mgr.LoadError() != nil:
		status = t.ErrorText.Render("Couldn't load messages (C-l to retry)")
	default:
		status = t.HeaderSubtitle.Render(styles.StatusIndicators.Active + " Active now")
	}

	return t.Header.Width(m.width).Render(
		t.Avatar.Render(conv.Initials()) + " " + t.HeaderTitle.Render(conv.Title()) + "  " + status)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar(height int) string {
	t := m.theme
	inner := styles.SidebarWidth - t.Sidebar.GetHorizontalPadding()
	convs := m.mgr.Conversations()

	lines := []string{t.HeaderTitle.Render("Conversations"), ""}
	if len(convs) == 0 {
		lines = append(lines, t.MutedText.Render("No conversations"))
	}

	now := m.opts.Now()
	for _, conv := range convs {
		when := ""
		if !conv.LastActivityAt.IsZero() {
			when = humanize.RelTime(conv.LastActivityAt, now, "ago", "from now")
		}
		title := util.TruncateWidth(conv.Title(), inner-util.StringWidth(when)-1)
		row := util.PadRight(title, inner-util.StringWidth(when)) + when

		preview := util.TruncateWidth(util.SingleLine(conv.LastMessagePreview), inner)
		if preview == "" {
			preview = "No messages yet"
		}

		if conv.ID == m.mgr.ActiveConversation() {
			lines = append(lines, t.SidebarSelected.Render(row))
		} else {
			lines = append(lines, t.SidebarItem.Render(row))
		}
		lines = append(lines, t.SidebarPreview.Render(preview), "")
	}

	return t.Sidebar.Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// renderMessages renders the active list and records where each message
// starts.
func (m Model) renderMessages(width int) (string, map[string]int) {
	t := m.theme
	offsets := make(map[string]int)
	msgs := m.mgr.Messages()

	if len(msgs) == 0 {
		switch {
		case m.mgr.ActiveConversation() == "":
			return t.Empty.Render("No conversation selected."), offsets
		case m.mgr.Loading():
			return t.Empty.Render("Loading messages..."), offsets
		case m.mgr.LoadError() != nil:
			return t.Empty.Render(t.ErrorText.Render(
				fmt.Sprintf("Couldn't load messages: %v\nPress C-l to retry.", m.mgr.LoadError().Err))), offsets
		default:
			return t.Empty.Render("No messages yet. Say hello!"), offsets
		}
	}

	var b strings.Builder
	line := 0
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
			line++
		}
		block := m.renderMessage(msg, width)
		offsets[msg.ID] = line
		line += lipgloss.Height(block)
		b.WriteString(block)
	}
	return b.String(), offsets
}

// renderMessage renders one entry: author line, optional reply quote, body.
func (m Model) renderMessage(msg model.Message, width int) string {
	t := m.theme
	selected := msg.ID == m.selectedID
	bodyWidth := width - 8
	if selected {
		bodyWidth--
	}
	if bodyWidth < 10 {
		bodyWidth = 10
	}

	meta := t.RemoteAuthor.Render(msg.Author.Label())
	if msg.Author.IsLocal() {
		meta = t.LocalAuthor.Render(msg.Author.Label())
	}
	if m.opts.ShowTimestamps && !msg.CreatedAt.IsZero() {
		meta += " " + t.Timestamp.Render(msg.Clock())
	}
	switch {
	case msg.IsPending():
		meta += " " + t.Pending.Render(styles.StatusIndicators.Pending)
	case msg.IsFailed():
		reason := msg.FailReason
		if reason == "" {
			reason = "Failed to send"
		}
		meta += " " + t.Failed.Render(styles.StatusIndicators.Failed+" "+reason)
	}

	parts := []string{meta}
	if msg.Reply != nil {
		quote := msg.Reply.Author.Label() + ": " + util.SingleLine(msg.Reply.Preview(quotePreviewLength))
		parts = append(parts, t.ReplyQuote.Render(util.TruncateWidth(quote, bodyWidth)))
	}
	parts = append(parts, m.renderBody(msg, bodyWidth))

	block := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if msg.Author.IsLocal() {
		block = lipgloss.PlaceHorizontal(width-1, lipgloss.Right, block)
	}
	if selected {
		block = t.SelectedBubble.Render(block)
	}
	return block
}

func (m Model) renderBody(msg model.Message, width int) string {
	t := m.theme
	if m.markdown != nil {
		return m.markdown.Render(msg.Content, width)
	}
	bubble := t.RemoteBubble
	if msg.Author.IsLocal() {
		bubble = t.LocalBubble
	}
	bubbleWidth := min(width, util.StringWidth(longestLine(msg.Content))+bubble.GetHorizontalPadding())
	return bubble.Width(bubbleWidth).Render(msg.Content)
}

// =============================================================================
// FOOTER
// =============================================================================

// renderFooter renders the typing line, feedback, reply banner, compose box
// and key help.
func (m Model) renderFooter() string {
	t := m.theme
	var parts []string

	if m.mgr.Typing() {
		parts = append(parts, " "+m.spinner.View()+t.Typing.Render(" Someone is typing..."))
	}
	if m.notice != "" {
		parts = append(parts, " "+styles.RenderError(m.notice))
	}
	if draft, ok := m.mgr.ReplyDraft(); ok {
		banner := fmt.Sprintf("Replying to %s: %s", draft.Author.Label(),
			util.SingleLine(draft.Preview(bannerPreviewLength)))
		banner = util.TruncateWidth(banner, max(10, m.width-20)) + t.MutedText.Render("  (esc to cancel)")
		parts = append(parts, t.ReplyBanner.Width(m.width).Render(banner))
	}

	compose := m.input.View() + "  " + t.Controls.Render(composeControls)
	parts = append(parts, t.InputContainer.Width(m.width).Render(compose))
	parts = append(parts, t.StatusBar.Width(m.width).Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func longestLine(s string) string {
	longest := ""
	for _, line := range strings.Split(s, "\n") {
		if util.StringWidth(line) > util.StringWidth(longest) {
			longest = line
		}
	}
	return longest
}
