// Package cache holds a small TTL-evicting read cache for query results.
// It is an explicit keyed store with its own lifecycle rather than a shared
// package-level map.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	hours     float64
	expiresAt time.Time
}

// QueryCache caches monthly totals keyed by trainer/year/month. Entries
// expire after the configured TTL and are dropped eagerly by Sweep or lazily
// on read. The write path invalidates all entries for a trainer.
type QueryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
}

func New(ttl time.Duration) *QueryCache {
	return &QueryCache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

func key(trainerUsername, year, month string) string {
	return trainerUsername + "|" + year + "|" + strings.ToUpper(month)
}

func (c *QueryCache) Get(trainerUsername, year, month string) (float64, bool) {
	c.mu.RLock()
	e, ok := c.entries[key(trainerUsername, year, month)]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return 0, false
	}
	return e.hours, true
}

func (c *QueryCache) Set(trainerUsername, year, month string, hours float64) {
	c.mu.Lock()
	c.entries[key(trainerUsername, year, month)] = entry{
		hours:     hours,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// InvalidateTrainer drops every cached month for the trainer. Called by the
// write path after a successful ledger update.
func (c *QueryCache) InvalidateTrainer(trainerUsername string) {
	prefix := trainerUsername + "|"

	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Sweep evicts expired entries on the given interval until ctx is done.
func (c *QueryCache) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Len reports the number of cached entries, expired or not.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
