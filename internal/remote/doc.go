// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remote provides an HTTP client for a hosted chat message store.
//
// The API exposes conversations, their messages and author profiles as JSON
// with the hosted schema's field names (user_id, reply_to, created_at).
//
// # Endpoints
//
//   - GET  /conversations
//   - GET  /conversations/{id}/messages
//   - POST /conversations/{id}/messages  -> {"id": ..., "created_at": ...}
//   - GET  /profiles/{id}
//
// # Usage
//
//	client, err := remote.NewClient(remote.Options{
//	    BaseURL: "https://chat.example.com/api",
//	    Token:   os.Getenv("WEBCHAT_STORE_TOKEN"),
//	})
//	msgs, err := client.FetchMessages(ctx, "general")
//
// Reads are retried on 5xx and 429 answers. Appends are sent exactly once.
package remote
