// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the webchat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Cyan - The local user and the active conversation
  - Purple - Remote authors and selections
  - Amber - Pending sends and the reply banner
  - Rose - Failed sends and load errors
  - Emerald - "Active now" and confirmed states

Message bubbles use LocalBubble* and RemoteBubble* tokens.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	if theme.ShowSidebar() {
		// render the conversation list
	}
*/
package styles
