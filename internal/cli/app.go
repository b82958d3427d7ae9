// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring shared by all commands: configuration, logging and the
// message store.

package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/webchat-tui/internal/config"
	"github.com/jeranaias/webchat-tui/internal/logging"
	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/remote"
	"github.com/jeranaias/webchat-tui/internal/session"
	"github.com/jeranaias/webchat-tui/internal/storage"
)

// backend is what every store implementation offers.
type backend interface {
	session.MessageStore
	session.ProfileResolver
	session.ConversationLister
}

// app holds the resources of one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  backend

	// local is set for the sqlite backend.
	local *storage.Store
}

// newApp loads configuration and opens the configured store.
func newApp(opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Path:    cfg.Log.Path,
		Verbose: opts.verbose,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.openStore(); err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Info("webchat started",
		zap.String("version", Version),
		zap.String("backend", cfg.Store.Backend),
		zap.String("user", cfg.Identity.UserID),
	)
	return a, nil
}

// loadConfig loads the config file named by --config, or the default one,
// and applies the flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.conversation != "" {
		cfg.Chat.DefaultConversation = opts.conversation
	}
	return cfg, nil
}

func (a *app) openStore() error {
	switch a.cfg.Store.Backend {
	case config.BackendHTTP:
		client, err := remote.NewClient(remote.Options{
			BaseURL:           a.cfg.Store.URL,
			Token:             a.cfg.Store.Token,
			RequestsPerSecond: a.cfg.Store.RequestsPerSecond,
			Burst:             a.cfg.Store.Burst,
			Timeout:           a.cfg.StoreTimeout(),
			Logger:            a.logger,
		})
		if err != nil {
			return err
		}
		a.store = client
		return nil

	default:
		st, err := storage.Open(storage.Options{
			Path:         a.cfg.Store.Path,
			PollInterval: a.cfg.PollInterval(),
			Logger:       a.logger,
		})
		if err != nil {
			return err
		}
		a.local = st
		a.store = st
		return nil
	}
}

// seedIfEmpty loads the built-in fixtures into a fresh local database.
func (a *app) seedIfEmpty(ctx context.Context) error {
	if a.local == nil {
		return nil
	}
	convs, err := a.local.ListConversations(ctx)
	if err != nil || len(convs) > 0 {
		return err
	}
	stats, err := a.local.Seed(ctx, storage.DefaultSeed(), a.selfProfile())
	if err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	a.logger.Info("seeded empty database",
		zap.Int("conversations", stats.Conversations),
		zap.Int("messages", stats.Messages),
	)
	return nil
}

func (a *app) selfProfile() storage.Profile {
	id := a.cfg.IdentityModel()
	return storage.Profile{ID: id.UserID, Username: id.DisplayName}
}

// newManager creates a session manager over the store.
func (a *app) newManager() (*session.Manager, error) {
	return session.NewManager(session.Options{
		Store:    a.store,
		Profiles: a.store,
		Identity: session.StaticIdentity(a.cfg.IdentityModel()),
		Logger:   a.logger,
		Config:   a.cfg.SessionConfig(),
	})
}

// history fetches a conversation with resolved author names, oldest first.
func (a *app) history(ctx context.Context, conversationID string) ([]model.RemoteMessage, map[string]string, error) {
	msgs, err := a.store.FetchMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(msgs))
	for i, msg := range msgs {
		ids[i] = msg.AuthorID
	}
	names := session.ResolveNames(ctx, a.store, ids, a.cfg.SessionConfig(), a.logger)
	return msgs, names, nil
}

// requestContext bounds one-shot command calls by the store timeout.
func (a *app) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := a.cfg.StoreTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// Close releases the store and flushes the log.
func (a *app) Close() error {
	var err error
	if a.local != nil {
		err = a.local.Close()
	}
	_ = a.logger.Sync()
	return err
}
