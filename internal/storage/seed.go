// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite message store.
package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
)

// SelfAuthor in seed files stands for the configured local user.
const SelfAuthor = "@me"

//go:embed seed.yaml
var defaultSeed []byte

// =============================================================================
// SEED FILE FORMAT
// =============================================================================

// SeedData describes fixture profiles, conversations and messages. Times are
// given as ages relative to the moment of seeding.
type SeedData struct {
	Profiles      []Profile          `yaml:"profiles"`
	Conversations []SeedConversation `yaml:"conversations"`
}

// SeedConversation is a conversation with its messages.
type SeedConversation struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Ago      time.Duration `yaml:"ago"`
	Messages []SeedMessage `yaml:"messages"`
}

// SeedMessage is one fixture message. ReplyTo refers to another seed
// message id in the same conversation.
type SeedMessage struct {
	ID      string        `yaml:"id"`
	User    string        `yaml:"user"`
	Content string        `yaml:"content"`
	Ago     time.Duration `yaml:"ago"`
	ReplyTo string        `yaml:"reply_to,omitempty"`
}

// ParseSeed decodes a YAML seed file.
func ParseSeed(data []byte) (*SeedData, error) {
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &seed, nil
}

// DefaultSeed returns the built-in fixtures.
func DefaultSeed() *SeedData {
	seed, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(err)
	}
	return seed
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedStats counts what Seed wrote.
type SeedStats struct {
	Profiles      int
	Conversations int
	Messages      int
}

// Seed writes fixtures into the store. Existing records with the same ids
// are kept; the run is idempotent. SelfAuthor is replaced by self.
func (s *Store) Seed(ctx context.Context, seed *SeedData, self Profile) (SeedStats, error) {
	var stats SeedStats
	now := s.now()

	profiles := seed.Profiles
	if self.ID != "" {
		profiles = append(append([]Profile(nil), profiles...), self)
	}
	for _, p := range profiles {
		if err := s.UpsertProfile(ctx, p); err != nil {
			return stats, err
		}
		stats.Profiles++
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback()

	for _, conv := range seed.Conversations {
		id := conv.ID
		if id == "" {
			id = slugify(conv.Name)
		}
		created := toNanos(now.Add(-conv.Ago))
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO conversations (id, name, created_by, created_at, updated_at)
			VALUES (?, ?, '', ?, ?)`, id, conv.Name, created, created)
		if err != nil {
			return stats, fmt.Errorf("seeding conversation %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Conversations++
		}

		n, err := seedMessages(ctx, tx, id, conv.Messages, self.ID, now)
		if err != nil {
			return stats, err
		}
		stats.Messages += n
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing seed: %w", err)
	}
	return stats, nil
}

func seedMessages(ctx context.Context, tx *sqlx.Tx, conversationID string, msgs []SeedMessage, selfID string, now time.Time) (int, error) {
	count := 0
	for i, msg := range msgs {
		user := msg.User
		if user == SelfAuthor {
			user = selfID
		}
		if user == "" {
			continue
		}
		id := msg.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", conversationID, i+1)
		}
		var replyTo any
		if msg.ReplyTo != "" {
			replyTo = msg.ReplyTo
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO messages (id, conversation_id, user_id, content, reply_to, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`, id, conversationID, user, msg.Content, replyTo, toNanos(now.Add(-msg.Ago)))
		if err != nil {
			return count, fmt.Errorf("seeding message %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			count++
		}
	}
	return count, nil
}
