package cache

import (
	"context"
	"log/slog"
	"time"
)

// Manager manages all cache instances and provides a unified interface.
type Manager struct {
	// Roles caches authorization decisions.
	Roles *RoleCache

	// Feed caches resolved display content feeds; memory-backed by default,
	// Redis-backed when configured.
	Feed Cacher

	// General holds misc cached data.
	General *SimpleCache
}

// NewManager creates a cache manager with a memory-backed feed cache.
func NewManager(feedTTL time.Duration) *Manager {
	return &Manager{
		Roles:   NewRoleCache(),
		Feed:    NewMemoryCache(feedTTL),
		General: New(5 * time.Minute),
	}
}

// NewManagerWithRedis creates a cache manager whose feed cache is shared
// through Redis.
func NewManagerWithRedis(redisURL, prefix string, feedTTL time.Duration) (*Manager, error) {
	feed, err := NewRedisCacheFromURL(redisURL, prefix, feedTTL)
	if err != nil {
		return nil, err
	}
	return &Manager{
		Roles:   NewRoleCache(),
		Feed:    feed,
		General: New(5 * time.Minute),
	}, nil
}

// Start starts background cleanup tasks.
func (m *Manager) Start() {
	m.Roles.StartCleanup(time.Minute)
	m.General.StartCleanup(time.Minute)
}

// Stop stops all background tasks and releases resources.
func (m *Manager) Stop() {
	m.Roles.Stop()
	m.General.Stop()
	if err := m.Feed.Close(); err != nil {
		slog.Warn("closing feed cache", "error", err)
	}
}

// ClearAll clears all caches and resets statistics.
func (m *Manager) ClearAll() {
	m.Roles.Clear()
	m.General.Clear()
	if err := m.Feed.Clear(context.Background()); err != nil {
		slog.Warn("clearing feed cache", "error", err)
	}

	m.Roles.ResetStats()
	m.General.ResetStats()

	slog.Info("caches cleared")
}
