// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// The indicator is a local timer started by each confirmed send: it appears
// after TypingDelay and hides after TypingDuration. A newer send restarts it.

func (m *Manager) scheduleTyping() tea.Cmd {
	if m.cfg.TypingDuration <= 0 {
		return nil
	}
	m.typingGen++
	epoch, gen := m.epoch, m.typingGen
	return tea.Tick(m.cfg.TypingDelay, func(time.Time) tea.Msg {
		return typingStartMsg{epoch: epoch, gen: gen}
	})
}

func (m *Manager) handleTypingStart(msg typingStartMsg) tea.Cmd {
	if msg.epoch != m.epoch || msg.gen != m.typingGen {
		return nil
	}
	m.typing = true
	epoch, gen := msg.epoch, msg.gen
	return tea.Tick(m.cfg.TypingDuration, func(time.Time) tea.Msg {
		return typingStopMsg{epoch: epoch, gen: gen}
	})
}

func (m *Manager) handleTypingStop(msg typingStopMsg) {
	if msg.epoch != m.epoch || msg.gen != m.typingGen {
		return
	}
	m.typing = false
}
