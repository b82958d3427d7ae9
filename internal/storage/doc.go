// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite message store.
//
// The store keeps profiles, conversations and messages in one SQLite file
// and implements the session package's MessageStore, ProfileResolver,
// ConversationLister and MessageWatcher interfaces.
//
// # Key Types
//
//   - Store: Database handle with message, conversation and profile queries
//   - Profile: Chat participant
//   - SeedData: YAML fixtures loaded by Seed
//
// # Usage
//
//	store, err := storage.Open(storage.Options{Path: storage.DefaultPath()})
//	defer store.Close()
//
//	_, err = store.Seed(ctx, storage.DefaultSeed(), storage.Profile{ID: "me", Username: "Me"})
//	msgs, err := store.FetchMessages(ctx, "general")
//
// # Storage Location
//
// The database lives in ~/.webchat/webchat.db by default. Several processes
// may share it; each sees the others' messages through WatchMessages.
package storage
