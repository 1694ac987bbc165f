package deps

import (
	"cmp"
	"slices"

	"github.com/olamyy/wmt/pkg/source"
)

// Scope says which part of a build a dependency belongs to.
type Scope string

const (
	ScopeNormal Scope = "normal"
	ScopeDev    Scope = "dev"
	ScopeBuild  Scope = "build"
	ScopePeer   Scope = "peer"
)

// Dependency is one entry of a manifest.
type Dependency struct {
	Name       string // Package name as written in the manifest
	Constraint string // Version requirement, empty if none
	Scope      Scope
	RepoURL    string // Set for git dependencies
}

// ManifestResult holds the dependencies declared by a manifest file.
type ManifestResult struct {
	Type         string           // Parser type that produced this result
	Ecosystem    source.Ecosystem // Registry the dependencies are published to
	RootPackage  string           // Name of the root package, if determinable
	Dependencies []Dependency     // Sorted by name, one entry per package
}

// Identities converts the dependencies into package identities, in
// manifest order. Dev dependencies are skipped unless includeDev is set.
func (r *ManifestResult) Identities(includeDev bool) []source.Identity {
	ids := make([]source.Identity, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		if d.Scope == ScopeDev && !includeDev {
			continue
		}
		ids = append(ids, source.Identity{
			Ecosystem: r.Ecosystem,
			Name:      d.Name,
			Version:   d.Constraint,
			RepoURL:   d.RepoURL,
		})
	}
	return ids
}

// Normalize sorts deps by name and keeps the first entry for each
// normalized name. Scopes are ranked normal, build, peer, dev, so a package
// that is both a normal and a dev dependency counts as normal.
func Normalize(eco source.Ecosystem, deps []Dependency) []Dependency {
	rank := map[Scope]int{ScopeNormal: 0, ScopeBuild: 1, ScopePeer: 2, ScopeDev: 3}
	slices.SortStableFunc(deps, func(a, b Dependency) int {
		if c := cmp.Compare(source.NormalizeName(eco, a.Name), source.NormalizeName(eco, b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(rank[a.Scope], rank[b.Scope])
	})
	return slices.CompactFunc(deps, func(a, b Dependency) bool {
		return source.NormalizeName(eco, a.Name) == source.NormalizeName(eco, b.Name)
	})
}
