// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders message bodies with glamour. The renderer is
// rebuilt when the wrap width changes; output is cached per body.
type markdownRenderer struct {
	style string
	width int
	tr    *glamour.TermRenderer
	cache map[string]string
}

func newMarkdownRenderer(dark bool) *markdownRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdownRenderer{style: style, cache: make(map[string]string)}
}

// Render returns content rendered for width columns, or content unchanged
// if rendering fails.
func (r *markdownRenderer) Render(content string, width int) string {
	if r == nil {
		return content
	}
	if r.tr == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		r.tr = tr
		r.width = width
		r.cache = make(map[string]string)
	}

	if out, ok := r.cache[content]; ok {
		return out
	}
	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	r.cache[content] = out
	return out
}
