package fetch

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/olamyy/wmt/pkg/observability"
	"github.com/olamyy/wmt/pkg/source"
)

// Key identifies one cached bundle: the source kind plus the normalized
// identity (an [source.Identity.Key] or a [source.RepoRef.Key]).
type Key struct {
	Kind source.Kind
	ID   string
}

func (k Key) String() string { return string(k.Kind) + "|" + k.ID }

// FetchFunc performs the uncached fetch for a key.
type FetchFunc func(ctx context.Context) (source.Bundle, error)

// Stats counts cache activity for one run.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Shared int64 `json:"shared"`
}

// Cache memoizes bundles for the lifetime of one run.
//
// At most one fetch per key is in flight at any time; concurrent callers
// for the same key wait for it and receive its result. Successful bundles
// and non-retryable failures (NotFound, MalformedResponse) are kept;
// retryable failures are dropped so a later request can try again.
//
// The zero value is not usable; create caches with [NewCache].
type Cache struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[Key]entry

	hits, misses, shared atomic.Int64
}

type entry struct {
	bundle source.Bundle
	err    *source.FetchError
}

func (e entry) result() (source.Bundle, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.bundle, nil
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]entry)}
}

// GetOrFetch returns the cached result for key, or calls fetch once to
// produce it. Errors are always *source.FetchError.
//
// If ctx is cancelled while waiting on another caller's fetch, GetOrFetch
// returns early; the shared fetch keeps running for the other waiters.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) (source.Bundle, error) {
	if e, ok := c.lookup(key); ok {
		c.hits.Add(1)
		observability.Cache().OnCacheHit(ctx, string(key.Kind))
		return e.result()
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// A previous flight may have stored the entry between lookup and
		// DoChan.
		if e, ok := c.lookup(key); ok {
			c.hits.Add(1)
			return e.result()
		}
		c.misses.Add(1)
		observability.Cache().OnCacheMiss(ctx, string(key.Kind))

		b, err := fetch(ctx)
		if err == nil && b == nil {
			err = source.NewFetchError(source.MalformedResponse, key.Kind, errEmptyBundle)
		}
		if err != nil {
			fe := source.Classify(key.Kind, err)
			if !fe.Kind.Retryable() {
				c.store(key, entry{err: fe})
			}
			return nil, fe
		}
		c.store(key, entry{bundle: b})
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, source.Classify(key.Kind, ctx.Err())
	case r := <-ch:
		if r.Shared {
			c.shared.Add(1)
			observability.Cache().OnCacheShared(ctx, string(key.Kind))
		}
		if r.Err != nil {
			return nil, source.Classify(key.Kind, r.Err)
		}
		return r.Val.(source.Bundle), nil
	}
}

// Forget drops the entry for key. The next GetOrFetch refetches and
// replaces it with a new bundle; bundles already handed out are untouched.
func (c *Cache) Forget(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key.String())
}

// Len returns the number of cached entries, negative ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Shared: c.shared.Load()}
}

func (c *Cache) lookup(key Key) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) store(key Key, e entry) {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}
