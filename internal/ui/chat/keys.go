// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings and the help text built from them.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Send        key.Binding
	NextConv    key.Binding
	PrevConv    key.Binding
	Up          key.Binding
	Down        key.Binding
	Reply       key.Binding
	CancelReply key.Binding
	Resend      key.Binding
	Reload      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings. Plain letters are left to
// the compose box.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NextConv: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next conversation"),
		),
		PrevConv: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev conversation"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "select older"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "select newer"),
		),
		Reply: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "reply"),
		),
		CancelReply: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel reply"),
		),
		Resend: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "retry failed"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "reload"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NextConv, k.Reply, k.Resend, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Reply, k.CancelReply, k.Resend},
		{k.NextConv, k.PrevConv, k.Up, k.Down},
		{k.PageUp, k.PageDown, k.Reload},
		{k.Help, k.Quit},
	}
}
