// Package cache holds the per-session star count cache.
package cache

import (
	"context"
	"log"
	"sync"

	"github.com/naka-gawa/github-star-badge/internal/domain"
	"github.com/naka-gawa/github-star-badge/internal/gateway"
	"github.com/naka-gawa/github-star-badge/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// StarCache maps "owner/name" to a resolved star count for the lifetime of a
// session. Entries never expire and failures are never stored, so a later
// scan retries them.
//
// Concurrent misses for the same repository share a single request.
type StarCache struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	counts map[string]int
	group  singleflight.Group
}

// NewStarCache creates an empty cache backed by fetcher. m may be nil.
func NewStarCache(fetcher gateway.Fetcher, logger *log.Logger, m *metrics.Metrics) *StarCache {
	return &StarCache{
		fetcher: fetcher,
		logger:  logger,
		metrics: m,
		counts:  make(map[string]int),
	}
}

// Resolve returns the star count for repo, from the cache when present and
// from the fetcher otherwise.
//
// If ctx is cancelled while waiting on a shared request, Resolve returns
// ctx.Err() but the request carries on and still populates the cache.
func (c *StarCache) Resolve(ctx context.Context, repo domain.RepoIdentity) (int, error) {
	key := repo.Key()
	if count, ok := c.Lookup(repo); ok {
		c.metrics.CacheHit()
		return count, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Re-check: a request for key may have completed between Lookup and DoChan.
		if count, ok := c.Lookup(repo); ok {
			return count, nil
		}
		c.metrics.CacheMiss()
		count, err := c.fetcher.FetchStarCount(context.WithoutCancel(ctx), repo)
		if err != nil {
			c.metrics.ResolveError(domain.ErrorKind(err))
			return 0, err
		}
		c.mu.Lock()
		c.counts[key] = count
		c.mu.Unlock()
		return count, nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Printf("Shared in-flight star count request for %s", key)
		}
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}

// Lookup returns the cached count for repo without touching the network.
func (c *StarCache) Lookup(repo domain.RepoIdentity) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count, ok := c.counts[repo.Key()]
	return count, ok
}

// Len returns the number of cached repositories.
func (c *StarCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.counts)
}

// Snapshot returns a copy of the cache contents keyed by "owner/name".
func (c *StarCache) Snapshot() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		snapshot[k] = v
	}
	return snapshot
}
