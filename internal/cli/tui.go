// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen interface.

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/webchat-tui/internal/ui/chat"
	"github.com/jeranaias/webchat-tui/internal/ui/styles"
)

// runTUI opens the store and runs the chat view until the user quits.
func runTUI(ctx context.Context, opts *globalOptions) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.seedIfEmpty(ctx); err != nil {
		return err
	}

	mgr, err := a.newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	theme := styles.NewTheme(a.cfg.UI.Theme)
	view := chat.New(mgr, theme, chat.Options{
		Markdown:            a.cfg.UI.Markdown,
		ShowTimestamps:      a.cfg.UI.ShowTimestamps,
		DefaultConversation: a.cfg.Chat.DefaultConversation,
		CharLimit:           a.cfg.Chat.MaxMessageLength,
	})

	p := tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
