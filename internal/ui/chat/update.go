// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/session"
	"github.com/jeranaias/webchat-tui/internal/ui/styles"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Everything else is a session completion.
	before := m.mgr.ActiveConversation()
	cmd := m.mgr.Update(msg)
	if m.mgr.ActiveConversation() != before {
		m.selectedID = ""
		m.followTail = true
	}
	if res, ok := msg.(session.SendResultMsg); ok && res.Err != nil && res.ConversationID == m.mgr.ActiveConversation() {
		m.notice = "Message not sent. Press C-e to retry."
	}
	m.refresh()
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.help.Width = m.width
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.mgr.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.NextConv):
		return m.cycleConversation(1)

	case key.Matches(msg, m.keys.PrevConv):
		return m.cycleConversation(-1)

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Reply):
		return m.beginReply()

	case key.Matches(msg, m.keys.CancelReply):
		if _, ok := m.mgr.ReplyDraft(); ok {
			m.mgr.CancelReply()
		} else {
			m.selectedID = ""
		}
		m.notice = ""
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Resend):
		return m.resend()

	case key.Matches(msg, m.keys.Reload):
		m.notice = ""
		cmd := tea.Batch(m.mgr.LoadHistory(), m.mgr.LoadConversations())
		m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		m.followTail = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		m.followTail = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) send() (tea.Model, tea.Cmd) {
	cmd, err := m.mgr.Send(m.input.Value())
	if err != nil {
		if errors.Is(err, session.ErrEmptyContent) {
			m.input.Reset()
			return m, nil
		}
		m.notice = err.Error()
		m.refresh()
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.selectedID = ""
	m.followTail = true
	m.refresh()
	return m, cmd
}

func (m Model) resend() (tea.Model, tea.Cmd) {
	id := m.selectedID
	if id == "" {
		id = lastFailed(m.mgr.Messages())
	}
	if id == "" {
		m.notice = "Nothing to retry."
		m.refresh()
		return m, nil
	}

	cmd, err := m.mgr.Resend(id)
	if err != nil {
		m.notice = err.Error()
		m.refresh()
		return m, nil
	}
	m.notice = ""
	m.selectedID = ""
	m.followTail = true
	m.refresh()
	return m, cmd
}

func (m Model) beginReply() (tea.Model, tea.Cmd) {
	if m.selectedID == "" {
		m.notice = "Select a message with up/down first."
		m.refresh()
		return m, nil
	}
	if err := m.mgr.BeginReply(m.selectedID); err != nil {
		m.notice = err.Error()
		m.selectedID = ""
	} else {
		m.notice = ""
	}
	m.refresh()
	return m, nil
}

// cycleConversation activates the conversation step places away from the
// active one, wrapping around.
func (m Model) cycleConversation(step int) (tea.Model, tea.Cmd) {
	convs := m.mgr.Conversations()
	if len(convs) == 0 {
		return m, nil
	}

	idx := -1
	for i, c := range convs {
		if c.ID == m.mgr.ActiveConversation() {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = (idx + step + len(convs)) % len(convs)
	}

	cmd := m.mgr.SelectConversation(convs[next].ID)
	m.selectedID = ""
	m.notice = ""
	m.followTail = true
	m.refresh()
	return m, cmd
}

// moveSelection moves the highlight by delta. Moving up with nothing
// selected picks the newest message; moving down past it clears the
// selection.
func (m *Model) moveSelection(delta int) {
	count := m.mgr.Count()
	if count == 0 {
		m.selectedID = ""
		return
	}

	idx := -1
	if m.selectedID != "" {
		idx = m.mgr.Position(m.selectedID)
	}
	switch {
	case idx < 0 && delta < 0:
		idx = count - 1
	case idx < 0:
		return
	default:
		idx += delta
	}

	if idx < 0 {
		idx = 0
	}
	if idx >= count {
		m.selectedID = ""
		m.followTail = true
		return
	}
	m.selectedID = m.mgr.Messages()[idx].ID
	m.followTail = false
}

// =============================================================================
// LAYOUT
// =============================================================================

// refresh recomputes the layout and re-renders the message list.
func (m *Model) refresh() {
	if m.selectedID != "" {
		if _, ok := m.mgr.Message(m.selectedID); !ok {
			m.selectedID = ""
		}
	}

	width := m.contentWidth()
	m.input.Width = max(10, m.width-lipgloss.Width(m.input.Prompt)-len(composeControls)-6)

	reserved := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderFooter())
	height := m.height - reserved
	if height < 1 {
		height = 1
	}

	m.viewport.Width = width
	m.viewport.Height = height
	content, offsets := m.renderMessages(width)
	m.offsets = offsets
	m.viewport.SetContent(content)

	switch {
	case m.followTail:
		m.viewport.GotoBottom()
	case m.selectedID != "":
		m.scrollToSelected()
	}
}

// contentWidth is the width of the message column.
func (m Model) contentWidth() int {
	width := m.width
	if m.theme.ShowSidebar() {
		width -= styles.SidebarWidth + m.theme.Sidebar.GetHorizontalBorderSize()
	}
	if width < 20 {
		width = 20
	}
	return width
}

// scrollToSelected keeps the selected message inside the viewport.
func (m *Model) scrollToSelected() {
	line, ok := m.offsets[m.selectedID]
	if !ok {
		return
	}
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func lastFailed(msgs []model.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsFailed() {
			return msgs[i].ID
		}
	}
	return ""
}
