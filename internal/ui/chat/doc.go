// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the webchat TUI.

The view is a thin Bubble Tea model over a session.Manager. It owns only
view state (selection, scroll position, the compose box); everything about
messages, sends and conversations lives in the manager and flows back
through Update.

# Key Components

## Model (model.go)

The Model struct holds the viewport, the compose input, a spinner for the
loading and typing indicators, and the key bindings.

## Update Loop (update.go)

Routes keys to actions and forwards every other message to the session
manager:
  - enter sends the compose box
  - tab / shift+tab cycle conversations
  - up / down select a message, C-r replies to it, esc cancels
  - C-e retries the selected (or last) failed send
  - C-l reloads history and the conversation list

## View Rendering (view.go, render.go)

  - Header with avatar initials, title and load status
  - Conversation sidebar with previews and relative times (wide layouts)
  - Message list with pending and failed markers and reply quotes
  - Footer with typing indicator, reply banner and compose box

Message bodies are rendered with glamour when markdown is enabled.

# Usage

	mgr := session.NewManager(session.Options{Store: store, Identity: id})
	view := chat.New(mgr, styles.NewTheme("auto"), chat.Options{Markdown: true})
	p := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
