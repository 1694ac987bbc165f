package check

import (
	"time"

	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/fetch"
	"github.com/olamyy/wmt/pkg/source"
)

// Default configuration values.
const (
	DefaultPackageConcurrency = 4
	DefaultFetchTimeout       = 15 * time.Second
	DefaultMaxRetries         = 3
	DefaultBackoffBase        = 500 * time.Millisecond
	DefaultBackoffMax         = 10 * time.Second
)

// Config is everything the engine needs to know about limits. It is
// supplied once at construction; the engine reads no files or environment.
type Config struct {
	// Sources holds per-source concurrency and rate limits.
	Sources map[source.Kind]fetch.Limits

	// PackageConcurrency caps how many packages are checked at once,
	// independently of the per-source limits.
	PackageConcurrency int

	// FetchTimeout is the deadline of a single adapter call.
	FetchTimeout time.Duration

	// MaxRetries bounds retries of Transient, Timeout and RateLimited
	// failures. Negative values are invalid; zero disables retries.
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultConfig returns limits suitable for the public crates.io, npm,
// PyPI and GitHub APIs.
func DefaultConfig() Config {
	return Config{
		Sources: map[source.Kind]fetch.Limits{
			// crates.io asks crawlers for at most one request per second.
			source.KindRegistry:   {MaxInFlight: 4, Calls: 10, Window: 10 * time.Second},
			source.KindRepository: {MaxInFlight: 4, Calls: 30, Window: time.Minute},
		},
		PackageConcurrency: DefaultPackageConcurrency,
		FetchTimeout:       DefaultFetchTimeout,
		MaxRetries:         DefaultMaxRetries,
		BackoffBase:        DefaultBackoffBase,
		BackoffMax:         DefaultBackoffMax,
	}
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
// Source limits are left alone: a missing source is unbounded.
func (c Config) WithDefaults() Config {
	if c.PackageConcurrency <= 0 {
		c.PackageConcurrency = DefaultPackageConcurrency
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	return c
}

// Validate reports configuration values the engine cannot work with.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max retries must not be negative (got %d)", c.MaxRetries)
	}
	if c.FetchTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "fetch timeout must not be negative (got %s)", c.FetchTimeout)
	}
	if c.BackoffMax < c.BackoffBase {
		return errors.New(errors.ErrCodeInvalidConfig, "backoff max %s is below backoff base %s", c.BackoffMax, c.BackoffBase)
	}
	for kind, l := range c.Sources {
		if !kind.Valid() {
			return errors.New(errors.ErrCodeInvalidConfig, "limits for unknown source %q", kind)
		}
		if l.MaxInFlight < 0 || l.Calls < 0 || l.Window < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "negative limit for source %q", kind)
		}
		if l.Calls > 0 && l.Window == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "source %q: calls set without a window", kind)
		}
		if l.Calls > 0 && l.Interval() <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "source %q: window %s is too short for %d calls", kind, l.Window, l.Calls)
		}
	}
	return nil
}

func (c Config) policy() fetch.Policy {
	return fetch.Policy{
		Timeout:     c.FetchTimeout,
		MaxRetries:  c.MaxRetries,
		BackoffBase: c.BackoffBase,
		BackoffMax:  c.BackoffMax,
	}
}
