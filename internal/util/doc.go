// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the webchat packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight: Column-aware layout helpers (go-runewidth)
//   - SingleLine: Collapse message bodies for one-line previews
//
// File Operations:
//   - WriteFileAtomic: Crash-safe file writing with fsync and rename
//
// # Usage
//
//	row := util.PadRight(conv.Title(), 20)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
