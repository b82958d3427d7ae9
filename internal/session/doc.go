// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
//
// The engine reconciles locally authored messages with a persisted message
// log. Sends are shown immediately as pending entries and settle to confirmed
// or failed when the store answers. History loads, appends and the realtime
// feed run as Bubble Tea commands; their results come back through Update on
// the program's single event loop.
//
// Each conversation switch advances an epoch. Completions carry the epoch
// they were issued under and are discarded when it no longer matches, so a
// slow reply from a previous conversation can never leak into the current one.
//
// # Key Types
//
//   - Manager: Owns the active conversation, its list and the reply draft
//   - Reconciler: Ordered, duplicate-free message list
//   - ReplyTracker: At most one reply draft
//   - MessageStore: Persisted log collaborator (fetch and append)
//   - ValidationError, LoadError, SendError: Error taxonomy
//
// # Usage
//
//	mgr, err := session.NewManager(session.Options{
//	    Store:    store,
//	    Profiles: store,
//	    Identity: session.StaticIdentity(cfg.Identity),
//	    Logger:   logger,
//	    Config:   session.DefaultConfig(),
//	})
//
//	// Inside a tea.Model:
//	cmd := mgr.SelectConversation("general")
//	cmd, err = mgr.Send("hello")
//	cmd = mgr.Update(msg)
package session
