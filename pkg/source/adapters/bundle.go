package adapters

import (
	"slices"
	"time"

	"github.com/olamyy/wmt/pkg/integrations"
	"github.com/olamyy/wmt/pkg/integrations/crates"
	"github.com/olamyy/wmt/pkg/integrations/github"
	"github.com/olamyy/wmt/pkg/integrations/npm"
	"github.com/olamyy/wmt/pkg/integrations/pypi"
	"github.com/olamyy/wmt/pkg/source"
)

// GapDownloads marks a registry bundle whose download counts could not be
// fetched.
const GapDownloads = "downloads"

func registryMeta(now time.Time, gaps ...string) source.Meta {
	return source.Meta{Kind: source.KindRegistry, FetchedAt: now, Complete: len(gaps) == 0, Gaps: gaps}
}

func crateBundle(info *crates.CrateInfo, now time.Time) *source.RegistryBundle {
	return &source.RegistryBundle{
		Meta:             registryMeta(now),
		Name:             info.Name,
		LatestVersion:    info.Version,
		VersionCount:     info.VersionCount,
		FirstReleaseAt:   info.FirstReleaseAt,
		LatestReleaseAt:  info.LatestReleaseAt,
		License:          info.License,
		Downloads:        &info.Downloads,
		RecentDownloads:  &info.RecentDownloads,
		DocumentationURL: info.Documentation,
		Homepage:         info.HomePage,
		RepositoryURL:    info.Repository,
		Yanked:           info.Yanked,
	}
}

func npmBundle(info *npm.PackageInfo, now time.Time) *source.RegistryBundle {
	var gaps []string
	if info.Downloads == nil {
		gaps = append(gaps, GapDownloads)
	}
	return &source.RegistryBundle{
		Meta:            registryMeta(now, gaps...),
		Name:            info.Name,
		LatestVersion:   info.Version,
		VersionCount:    info.VersionCount,
		FirstReleaseAt:  info.FirstReleaseAt,
		LatestReleaseAt: info.LatestReleaseAt,
		License:         info.License,
		Downloads:       info.Downloads,
		RecentDownloads: info.RecentDownloads,
		Homepage:        info.HomePage,
		RepositoryURL:   info.Repository,
		Yanked:          info.Deprecated,
	}
}

func pypiBundle(info *pypi.PackageInfo, now time.Time) *source.RegistryBundle {
	var gaps []string
	if info.Downloads == nil {
		gaps = append(gaps, GapDownloads)
	}
	return &source.RegistryBundle{
		Meta:             registryMeta(now, gaps...),
		Name:             info.Name,
		LatestVersion:    info.Version,
		VersionCount:     info.VersionCount,
		FirstReleaseAt:   info.FirstReleaseAt,
		LatestReleaseAt:  info.LatestReleaseAt,
		License:          info.License,
		Downloads:        info.Downloads,
		RecentDownloads:  info.RecentDownloads,
		DocumentationURL: info.DocumentationURL,
		Homepage:         info.HomePage,
		RepositoryURL:    integrations.PickRepoURL(info.ProjectURLs, info.HomePage, isRepoURL),
		Yanked:           info.Yanked,
	}
}

func isRepoURL(u string) bool {
	_, ok := source.ParseRepoURL(u)
	return ok
}

func repositoryBundle(ref source.RepoRef, r *github.Repository, now time.Time) *source.RepositoryBundle {
	b := &source.RepositoryBundle{
		Meta: source.Meta{
			Kind:      source.KindRepository,
			FetchedAt: now,
			Complete:  len(r.Gaps) == 0,
			Gaps:      slices.Clone(r.Gaps),
		},
		Repo:             ref,
		DefaultBranch:    r.DefaultBranch,
		Archived:         r.Archived,
		OpenIssues:       r.OpenIssues,
		OpenPullRequests: r.OpenPullRequests,
		Contributors:     r.Contributors,
		LastCommitAt:     r.LastCommitAt,
		CIWorkflows:      slices.Concat(r.Workflows, r.CIFiles),
		BranchProtected:  r.BranchProtected,
	}

	switch {
	case len(b.CIWorkflows) > 0:
		b.CIConfigured = boolp(true)
	case !b.Missing(github.GapWorkflows) && !b.Missing(github.GapFiles):
		b.CIConfigured = boolp(false)
	}
	if run := r.LatestRun; run != nil {
		b.LatestCIConclusion = run.Conclusion
		b.LatestCIRunAt = &run.CreatedAt
	}
	if f := r.Files; f != nil {
		b.HasReadme = boolp(f.Readme)
		b.HasChangelog = boolp(f.Changelog)
		b.HasTests = boolp(f.Tests)
		b.HasFunding = boolp(f.Funding)
		b.HasUpdateBot = boolp(f.UpdateBot)
	}
	if rel := r.LatestRelease; rel != nil {
		b.LatestReleaseAt = &rel.PublishedAt
		b.LatestReleaseNotes = rel.Body
	}
	if bugs := r.Bugs; bugs != nil {
		b.RecentBugReports = &bugs.Sampled
		b.RespondedBugReports = bugs.Responded
	}
	return b
}

func boolp(v bool) *bool { return &v }
