package cache

import (
	"fmt"
	"sync"
	"time"
)

// Default TTLs for cached authorization decisions. The system-admin flag is
// checked on nearly every call and changes rarely; scoped decisions are
// cheaper to recompute and get a shorter window.
const (
	SystemAdminTTL = 15 * time.Minute
	ScopedRoleTTL  = 10 * time.Minute
)

// RoleCache caches authorization decisions keyed by operation + user + scope.
// Every key written for a user is tracked in a per-user index; invalidating
// the user purges the whole tracked set, so no stale decision survives a
// role mutation. Over-invalidation is accepted for correctness.
type RoleCache struct {
	cache *SimpleCache

	mu      sync.Mutex
	tracked map[int64]map[string]struct{}
}

// NewRoleCache creates a role cache. The underlying TTL cache keeps entries
// no longer than SystemAdminTTL; individual sets may use shorter TTLs.
func NewRoleCache() *RoleCache {
	return &RoleCache{
		cache:   New(SystemAdminTTL),
		tracked: make(map[int64]map[string]struct{}),
	}
}

// SystemAdminKey returns the cache key for a user's system-admin flag.
func SystemAdminKey(userID int64) string {
	return fmt.Sprintf("sysadmin:%d", userID)
}

// ScopedKey returns the cache key for a scoped decision, e.g.
// ("company_access", 7, 3) -> "company_access:7:3".
func ScopedKey(op string, userID, scopeID int64) string {
	return fmt.Sprintf("%s:%d:%d", op, userID, scopeID)
}

// UserKey returns the cache key for a per-user (scope-free) decision.
func UserKey(op string, userID int64) string {
	return fmt.Sprintf("%s:%d", op, userID)
}

// GetBool retrieves a cached boolean decision.
func (c *RoleCache) GetBool(key string) (value, ok bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// SetBool caches a boolean decision for the user and tracks the key in the
// user's index for later invalidation.
func (c *RoleCache) SetBool(userID int64, key string, value bool, ttl time.Duration) {
	c.track(userID, key)
	c.cache.SetWithTTL(key, value, ttl)
}

// InvalidateUser removes every cached decision tracked for the user. With a
// cold index it still purges the system-admin entry, the one key that is
// always derivable from the user id alone.
func (c *RoleCache) InvalidateUser(userID int64) {
	c.mu.Lock()
	keys := c.tracked[userID]
	delete(c.tracked, userID)
	c.mu.Unlock()

	for key := range keys {
		c.cache.Delete(key)
	}
	c.cache.Delete(SystemAdminKey(userID))
}

// Clear drops every cached decision and the tracking index.
func (c *RoleCache) Clear() {
	c.mu.Lock()
	c.tracked = make(map[int64]map[string]struct{})
	c.mu.Unlock()
	c.cache.Clear()
}

// Stats returns statistics of the underlying cache.
func (c *RoleCache) Stats() Stats {
	return c.cache.Stats()
}

// ResetStats resets statistics of the underlying cache.
func (c *RoleCache) ResetStats() {
	c.cache.ResetStats()
}

// StartCleanup starts periodic expiry of the underlying cache.
func (c *RoleCache) StartCleanup(interval time.Duration) {
	c.cache.StartCleanup(interval)
}

// Stop stops the cleanup goroutine.
func (c *RoleCache) Stop() {
	c.cache.Stop()
}

func (c *RoleCache) track(userID int64, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.tracked[userID]
	if !ok {
		set = make(map[string]struct{})
		c.tracked[userID] = set
	}
	set[key] = struct{}{}
}
