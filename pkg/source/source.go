// Package source defines the data source contract of the check engine.
//
// A data source turns a package [Identity] (or a hosted repository
// [RepoRef]) into a typed metadata bundle. Two kinds exist today:
//
//   - [KindRegistry]: the package registry (crates.io, npm, PyPI)
//   - [KindRepository]: the source hosting platform (GitHub)
//
// Adapters are pure transport boundaries: they do no caching and no rate
// control of their own and report every failure as a [*FetchError]. The
// engine in package check composes them with the cache and scheduler from
// package fetch.
package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Kind names a data source.
type Kind string

const (
	KindRegistry   Kind = "registry"
	KindRepository Kind = "repository"
)

// Kinds returns every data source kind the engine knows about.
func Kinds() []Kind { return []Kind{KindRegistry, KindRepository} }

// Valid reports whether k is one of [Kinds].
func (k Kind) Valid() bool {
	return k == KindRegistry || k == KindRepository
}

// Ecosystem names a package registry.
type Ecosystem string

const (
	Cargo Ecosystem = "cargo"
	NPM   Ecosystem = "npm"
	PyPI  Ecosystem = "pypi"
)

// Ecosystems lists the supported registries in display order.
func Ecosystems() []Ecosystem { return []Ecosystem{Cargo, NPM, PyPI} }

// Identity names one package to assess. It is immutable once created;
// equality for caching purposes is by [Identity.Key].
type Identity struct {
	Ecosystem Ecosystem `json:"ecosystem" yaml:"ecosystem" bson:"ecosystem"`
	Name      string    `json:"name" yaml:"name" bson:"name"`
	Version   string    `json:"version,omitempty" yaml:"version,omitempty" bson:"version,omitempty"`
	RepoURL   string    `json:"repository,omitempty" yaml:"repository,omitempty" bson:"repository,omitempty"`
}

// Key returns the normalized form of the identity used for cache keying.
// Names are case-folded and trimmed; crates.io and PyPI treat '_' and '-'
// as equivalent, so those are folded too.
func (id Identity) Key() string {
	return string(id.Ecosystem) + ":" + NormalizeName(id.Ecosystem, id.Name)
}

// String renders the identity the way users type it.
func (id Identity) String() string {
	s := string(id.Ecosystem) + ":" + id.Name
	if id.Version != "" {
		s += "@" + id.Version
	}
	return s
}

// NormalizeName converts a package name to its canonical form for eco.
func NormalizeName(eco Ecosystem, name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch eco {
	case Cargo, PyPI:
		n = strings.ReplaceAll(n, "_", "-")
		if eco == PyPI {
			n = strings.ReplaceAll(n, ".", "-")
		}
	}
	return n
}

// RepoRef identifies a hosted repository. Repository bundles are keyed by
// RepoRef rather than by package, so packages living in the same repository
// share one fetch.
type RepoRef struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// Key returns the normalized cache key of the repository.
func (r RepoRef) Key() string {
	return strings.ToLower(r.Host + "/" + r.Owner + "/" + r.Name)
}

func (r RepoRef) String() string { return r.Host + "/" + r.Owner + "/" + r.Name }

// IsZero reports whether r names no repository.
func (r RepoRef) IsZero() bool { return r.Owner == "" || r.Name == "" }

// URL returns the canonical https URL of the repository.
func (r RepoRef) URL() string { return "https://" + r.String() }

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"ssh://git@github.com/", "https://github.com/",
)

// ParseRepoURL extracts a RepoRef from the many shapes registries publish
// repository URLs in (git+https, git@, .git suffixes, deep links to trees).
// Only GitHub is recognised; ok is false for anything else.
func ParseRepoURL(raw string) (ref RepoRef, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RepoRef{}, false
	}
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	if strings.HasPrefix(s, "github:") {
		s = "https://github.com/" + strings.TrimPrefix(s, "github:")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return RepoRef{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return RepoRef{}, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" || parts[0] == "sponsors" {
		return RepoRef{}, false
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return RepoRef{}, false
	}
	return RepoRef{Host: host, Owner: strings.ToLower(parts[0]), Name: strings.ToLower(name)}, true
}

// Adapter is the transport boundary for metadata sources. Each call runs
// under the deadline carried by ctx; implementations must honour it and
// report expiry as a Timeout [FetchError]. Adapters must be safe for
// concurrent use with distinct arguments.
type Adapter interface {
	FetchRegistry(ctx context.Context, id Identity) (*RegistryBundle, error)
	FetchRepository(ctx context.Context, repo RepoRef) (*RepositoryBundle, error)
}

// Server is optionally implemented by adapters that serve only some kinds.
// The engine refuses to run criteria needing a kind the adapter does not
// serve.
type Server interface {
	Serves(kind Kind) bool
}

// Serves reports whether a serves kind. Adapters that do not implement
// [Server] are assumed to serve every known kind.
func Serves(a Adapter, kind Kind) bool {
	if !kind.Valid() {
		return false
	}
	if s, ok := a.(Server); ok {
		return s.Serves(kind)
	}
	return true
}

// ParseEcosystem converts a user supplied ecosystem name, accepting the
// common aliases ("crates", "rust", "python", "node" ...).
func ParseEcosystem(s string) (Ecosystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cargo", "crates", "crates.io", "rust":
		return Cargo, nil
	case "npm", "node", "javascript", "js":
		return NPM, nil
	case "pypi", "pip", "python", "py":
		return PyPI, nil
	}
	return "", fmt.Errorf("unsupported ecosystem %q", s)
}
