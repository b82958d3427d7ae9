// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the command-line interface for webchat.
//
// The command tree is built with cobra. Every command loads the config,
// opens a zap logger on the configured log file and connects to the
// configured store before doing its work.
//
// # Commands Overview
//
//   - (none): full-screen TUI, or line mode when not on a terminal
//   - line: line-mode REPL with /list, /switch, /reply, /cancel, /retry,
//     /reload and /quit
//   - seed [file]: load fixtures into the local database
//   - conversations: list conversations
//   - history <id>: print a conversation
//   - config show|init: inspect or create the config file
//   - version: print build information
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
//
// # Line Mode
//
// Line mode runs the same session manager as the TUI inside a headless
// Bubble Tea program. The REPL goroutine only reads input and hands each
// line to the program, so session state is confined to one event loop.
package cli
