// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the message synchronization engine for a chat view.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// PROFILE CACHE
// =============================================================================

// profileCache memoises display names. It is called from command goroutines,
// so it is guarded by a mutex. Failed lookups are not cached.
type profileCache struct {
	mu       sync.Mutex
	names    map[string]string
	resolver ProfileResolver
	fallback string
	limit    int
	logger   *zap.Logger
}

func newProfileCache(resolver ProfileResolver, fallback string, limit int, logger *zap.Logger) *profileCache {
	if limit <= 0 {
		limit = 1
	}
	return &profileCache{
		names:    make(map[string]string),
		resolver: resolver,
		fallback: fallback,
		limit:    limit,
		logger:   logger,
	}
}

// seed records a known name without a lookup.
func (c *profileCache) seed(id, name string) {
	if id == "" || name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[id] = name
}

func (c *profileCache) cached(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[id]
	return name, ok
}

// lookup resolves one author, degrading to the placeholder name on failure.
func (c *profileCache) lookup(ctx context.Context, id string) string {
	if name, ok := c.cached(id); ok {
		return name
	}
	if c.resolver == nil || id == "" {
		return c.fallback
	}

	name, err := c.resolver.DisplayName(ctx, id)
	if err != nil || name == "" {
		c.logger.Debug("profile lookup failed", zap.String("author", id), zap.Error(err))
		return c.fallback
	}
	c.seed(id, name)
	return name
}

// resolveAll looks up every distinct id concurrently.
func (c *profileCache) resolveAll(ctx context.Context, ids []string) map[string]string {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	var mu sync.Mutex
	out := make(map[string]string, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for id := range unique {
		g.Go(func() error {
			name := c.lookup(gctx, id)
			mu.Lock()
			out[id] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ResolveNames looks up the display names of ids once, with the concurrency
// limit and placeholder name of cfg. Authors whose lookup fails get the
// placeholder.
func ResolveNames(ctx context.Context, resolver ProfileResolver, ids []string, cfg Config, logger *zap.Logger) map[string]string {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newProfileCache(resolver, cfg.UnknownAuthorName, cfg.ProfileConcurrency, logger).resolveAll(ctx, ids)
}
