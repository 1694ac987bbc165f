// Package adapters implements [source.Adapter] over the registry and GitHub
// clients of package integrations.
//
// One [Adapter] routes registry lookups by ecosystem (crates.io, npm, PyPI)
// and repository lookups to GitHub. It maps transport errors to
// [source.FetchError] kinds and leaves retries, rate control and per-run
// caching to the engine.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/integrations/crates"
	"github.com/olamyy/wmt/pkg/integrations/github"
	"github.com/olamyy/wmt/pkg/integrations/npm"
	"github.com/olamyy/wmt/pkg/integrations/pypi"
	"github.com/olamyy/wmt/pkg/source"
)

// Clients holds the transport clients an Adapter routes to. A nil client
// means the adapter does not serve that ecosystem or host.
type Clients struct {
	Crates *crates.Client
	NPM    *npm.Client
	PyPI   *pypi.Client
	GitHub *github.Client
}

// DefaultClients creates every client against the public APIs, sharing one
// HTTP response cache. A nil backend disables response caching.
func DefaultClients(backend cache.Cache, ttl time.Duration, githubToken string) Clients {
	return Clients{
		Crates: crates.NewClient(backend, ttl),
		NPM:    npm.NewClient(backend, ttl),
		PyPI:   pypi.NewClient(backend, ttl),
		GitHub: github.NewClient(backend, githubToken, ttl),
	}
}

// Adapter is the production [source.Adapter]. It is safe for concurrent use.
type Adapter struct {
	clients Clients
	refresh bool
	now     func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRefresh bypasses the HTTP response cache on every lookup.
func WithRefresh(refresh bool) Option {
	return func(a *Adapter) { a.refresh = refresh }
}

// WithClock sets the clock bundles are timestamped with.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an adapter over clients.
func New(clients Clients, opts ...Option) *Adapter {
	a := &Adapter{clients: clients, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var (
	_ source.Adapter = (*Adapter)(nil)
	_ source.Server  = (*Adapter)(nil)
)

// Serves implements [source.Server].
func (a *Adapter) Serves(kind source.Kind) bool {
	switch kind {
	case source.KindRegistry:
		return a.clients.Crates != nil || a.clients.NPM != nil || a.clients.PyPI != nil
	case source.KindRepository:
		return a.clients.GitHub != nil
	}
	return false
}

// FetchRegistry looks id up in the registry of its ecosystem.
func (a *Adapter) FetchRegistry(ctx context.Context, id source.Identity) (*source.RegistryBundle, error) {
	switch id.Ecosystem {
	case source.Cargo:
		if c := a.clients.Crates; c != nil {
			info, err := c.FetchCrate(ctx, id.Name, a.refresh)
			if err != nil {
				return nil, fetchError(source.KindRegistry, err)
			}
			return crateBundle(info, a.now()), nil
		}
	case source.NPM:
		if c := a.clients.NPM; c != nil {
			info, err := c.FetchPackage(ctx, id.Name, a.refresh)
			if err != nil {
				return nil, fetchError(source.KindRegistry, err)
			}
			return npmBundle(info, a.now()), nil
		}
	case source.PyPI:
		if c := a.clients.PyPI; c != nil {
			info, err := c.FetchPackage(ctx, id.Name, a.refresh)
			if err != nil {
				return nil, fetchError(source.KindRegistry, err)
			}
			return pypiBundle(info, a.now()), nil
		}
	}
	return nil, source.NewFetchError(source.NotFound, source.KindRegistry,
		fmt.Errorf("no registry configured for ecosystem %q", id.Ecosystem))
}

// FetchRepository looks ref up on its hosting platform. Only GitHub is
// supported.
func (a *Adapter) FetchRepository(ctx context.Context, ref source.RepoRef) (*source.RepositoryBundle, error) {
	if ref.Host != "github.com" || a.clients.GitHub == nil {
		return nil, source.NewFetchError(source.NotFound, source.KindRepository,
			fmt.Errorf("unsupported repository host %q", ref.Host))
	}
	repo, err := a.clients.GitHub.FetchRepository(ctx, ref.Owner, ref.Name, a.refresh)
	if err != nil {
		return nil, fetchError(source.KindRepository, err)
	}
	return repositoryBundle(ref, repo, a.now()), nil
}
