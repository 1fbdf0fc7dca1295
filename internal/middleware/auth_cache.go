package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/auditflow/auditflow/internal/models"
)

const (
	scopeCacheTTL      = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("api token not found (cached)")

type cachedScope struct {
	scope     models.Scope
	negative  bool
	fetchedAt time.Time
}

// ttl returns the appropriate TTL for this entry.
func (cs cachedScope) ttl() time.Duration {
	if cs.negative {
		return negativeCacheTTL
	}
	return scopeCacheTTL
}

// hashToken returns a hex-encoded SHA-256 hash of the API token so raw
// tokens are never stored in memory.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// CachedScopeLookup wraps a ScopeLookup with a bounded in-memory cache.
type CachedScopeLookup struct {
	inner ScopeLookup
	mu    sync.RWMutex
	cache map[string]cachedScope
}

// NewCachedScopeLookup creates a caching wrapper around the given ScopeLookup.
// The provided context controls the lifetime of the background eviction goroutine.
func NewCachedScopeLookup(ctx context.Context, inner ScopeLookup) *CachedScopeLookup {
	c := &CachedScopeLookup{
		inner: inner,
		cache: make(map[string]cachedScope),
	}
	go c.evictLoop(ctx)
	return c
}

// evictLoop periodically removes expired entries from the cache.
func (c *CachedScopeLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.cache {
				if now.Sub(v.fetchedAt) >= v.ttl() {
					delete(c.cache, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// GetScopeByToken returns a cached scope or delegates to the inner lookup.
// Failed lookups are negatively cached for 30s to prevent brute-force DB hammering.
func (c *CachedScopeLookup) GetScopeByToken(ctx context.Context, token string) (models.Scope, error) {
	ht := hashToken(token)

	// Read path. RLock for concurrent cache hits.
	c.mu.RLock()
	entry, ok := c.cache[ht]
	if ok && time.Since(entry.fetchedAt) < entry.ttl() {
		c.mu.RUnlock()
		if entry.negative {
			return models.Scope{}, errCachedNotFound
		}
		return entry.scope, nil
	}
	c.mu.RUnlock()

	// Cache miss or expired. Fetch from inner.
	scope, err := c.inner.GetScopeByToken(ctx, token)
	if err != nil {
		// Negative cache: store failed lookup with short TTL.
		c.mu.Lock()
		c.cache[ht] = cachedScope{negative: true, fetchedAt: time.Now()}
		c.mu.Unlock()
		return models.Scope{}, err
	}

	c.mu.Lock()
	if len(c.cache) >= maxCacheEntries {
		// Evict expired entries, then trim if still over limit.
		now := time.Now()
		for k, v := range c.cache {
			if now.Sub(v.fetchedAt) >= v.ttl() {
				delete(c.cache, k)
			}
		}
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}
	c.cache[ht] = cachedScope{scope: scope, fetchedAt: time.Now()}
	c.mu.Unlock()

	return scope, nil
}
