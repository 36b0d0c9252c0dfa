package reportcache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
)

type entry struct {
	resp      report.Response
	expiresAt time.Time
}

// MemoryCache is an in-process report cache for tests and local runs.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int64]entry
	now     func() time.Time
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[int64]entry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, userID int64) (report.Response, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return report.Response{}, false, nil
	}
	if !e.expiresAt.IsZero() && e.expiresAt.Before(c.now()) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return report.Response{}, false, nil
	}
	return e.resp, true, nil
}

func (c *MemoryCache) Set(_ context.Context, userID int64, resp report.Response, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.entries[userID] = entry{resp: resp, expiresAt: exp}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

var _ report.Cache = (*MemoryCache)(nil)
