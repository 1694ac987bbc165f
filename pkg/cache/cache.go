// Package cache provides byte-level storage backends for HTTP response
// caching in the registry and GitHub clients.
//
// The check engine has its own in-memory, per-run cache (see pkg/fetch);
// this package only persists raw API responses across runs and is off by
// default. Three backends are available:
//
//   - [NullCache]: never stores anything (the default)
//   - [FileCache]: one JSON file per entry under a directory
//   - [RedisCache]: a shared Redis instance
//
// Keys are built with a [Keyer] so that different namespaces (crates, npm,
// pypi, github) and different credentials never collide.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a response identified by key within
	// namespace (e.g. "crates:", "serde").
	HTTPKey(namespace, key string) string
}

// DefaultKeyer produces unscoped keys of the form "http:<namespace>:<key>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
