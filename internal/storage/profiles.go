// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite message store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Profile is a chat participant.
type Profile struct {
	ID       string `db:"id" yaml:"id"`
	Username string `db:"username" yaml:"username"`
	Email    string `db:"email" yaml:"email,omitempty"`
	IsGuest  bool   `db:"is_guest" yaml:"guest,omitempty"`
}

// UpsertProfile creates or renames a profile.
func (s *Store) UpsertProfile(ctx context.Context, p Profile) error {
	if p.ID == "" || p.Username == "" {
		return errors.New("profile id and username are required")
	}
	now := toNanos(s.now())
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id, username, email, is_guest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, email = excluded.email,
			is_guest = excluded.is_guest, updated_at = excluded.updated_at`,
		p.ID, p.Username, p.Email, p.IsGuest, now, now)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// DisplayName returns the username of a profile.
func (s *Store) DisplayName(ctx context.Context, authorID string) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT username FROM profiles WHERE id = ?`, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrProfileNotFound, authorID)
	}
	if err != nil {
		return "", fmt.Errorf("loading profile: %w", err)
	}
	return name, nil
}
