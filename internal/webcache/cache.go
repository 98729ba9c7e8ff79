// Package webcache holds the short-lived aggregate answers the console
// serves repeatedly, like the cross-client report and the backup-running
// flag, so every page load does not hit the backup engine.
package webcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Well-known cache keys.
const (
	KeyClientsReport = "clients_report"
	KeyBackupRunning = "backup_running"
)

// Cache wraps an expiring LRU keyed by string. Entries fall out on their own
// after the TTL; Purge drops everything at once when the underlying data is
// known to have changed.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache holding at most size entries, each for at most ttl.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

// Set stores value under key.
func (c *Cache) Set(key string, value any) {
	c.lru.Add(key, value)
}

// Purge removes all entries.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
