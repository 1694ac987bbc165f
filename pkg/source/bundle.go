package source

import (
	"slices"
	"time"
)

// Bundle is a typed snapshot of metadata from one source for one package or
// repository. It is implemented by [*RegistryBundle] and [*RepositoryBundle].
//
// Bundles are immutable once returned by an adapter: the fetch cache shares
// the same instance across every package that needs it.
type Bundle interface {
	BundleMeta() Meta
}

// Meta is the header every bundle carries.
type Meta struct {
	Kind      Kind
	FetchedAt time.Time

	// Complete is false when the source answered but some optional
	// fields could not be obtained; those are listed in Gaps.
	Complete bool
	Gaps     []string
}

// BundleMeta implements [Bundle].
func (m Meta) BundleMeta() Meta { return m }

// Missing reports whether field is listed as a gap.
func (m Meta) Missing(field string) bool { return slices.Contains(m.Gaps, field) }

// Age returns how long before the fetch t happened. Evaluators measure
// ages against the fetch timestamp so that verdicts are deterministic.
func (m Meta) Age(t time.Time) time.Duration { return m.FetchedAt.Sub(t) }

// RegistryBundle is what a package registry reports about a package.
// Pointer fields are nil when the registry did not report them.
type RegistryBundle struct {
	Meta

	Name             string
	LatestVersion    string
	VersionCount     int
	FirstReleaseAt   *time.Time
	LatestReleaseAt  *time.Time
	License          string
	Downloads        *int64
	RecentDownloads  *int64
	DocumentationURL string
	Homepage         string
	RepositoryURL    string
	Yanked           bool
}

// RepositoryBundle is what the hosting platform reports about a repository.
// Pointer fields are nil when the platform did not report them.
type RepositoryBundle struct {
	Meta

	Repo          RepoRef
	DefaultBranch string
	Archived      bool

	OpenIssues       *int
	OpenPullRequests *int
	Contributors     *int
	LastCommitAt     *time.Time

	CIConfigured       *bool
	CIWorkflows        []string
	LatestCIConclusion string
	LatestCIRunAt      *time.Time

	HasReadme          *bool
	HasChangelog       *bool
	HasTests           *bool
	HasFunding         *bool
	HasUpdateBot       *bool
	BranchProtected    *bool
	LatestReleaseAt    *time.Time
	LatestReleaseNotes string

	RecentBugReports    *int
	RespondedBugReports int
}

var (
	_ Bundle = (*RegistryBundle)(nil)
	_ Bundle = (*RepositoryBundle)(nil)
)
