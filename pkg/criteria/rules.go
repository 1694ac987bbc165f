package criteria

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/github/go-spdx/v2/spdxexp"

	"github.com/olamyy/wmt/pkg/source"
)

// Thresholds used by the built-in checklist.
const (
	// MinDownloadsForMinor is the download count a 0.x release with a
	// non-zero minor version needs to count as production ready.
	MinDownloadsForMinor = 500

	// MinDownloads is the total download count for "relatively well used".
	MinDownloads    = 10_000
	MinContributors = 2

	Year     = 365 * 24 * time.Hour
	CIWindow = 90 * 24 * time.Hour
)

// Permissive is the allow-list the license criterion checks SPDX
// expressions against.
var Permissive = []string{
	"MIT", "MIT-0", "Apache-2.0", "BSD-2-Clause", "BSD-3-Clause", "ISC", "0BSD",
	"Zlib", "Unlicense", "CC0-1.0", "BSL-1.0", "PSF-2.0", "Python-2.0", "MPL-2.0",
}

var (
	registryOnly   = []source.Kind{source.KindRegistry}
	repositoryOnly = []source.Kind{source.KindRepository}
	both           = []source.Kind{source.KindRegistry, source.KindRepository}
)

func checklist() []Spec {
	return []Spec{
		{
			ID:          "production-ready",
			Title:       "Is it described as production ready?",
			Explanation: "A 1.0+ release, or a 0.x release with a non-zero minor version and real downloads, signals the authors consider it usable.",
			Needs:       registryOnly,
			Evaluate:    productionReady,
		},
		{
			ID:          "documentation",
			Title:       "Is there sufficient documentation?",
			Explanation: "Published API documentation or at least a README in the repository.",
			Needs:       both,
			Evaluate:    documentation,
		},
		{
			ID:          "changelog",
			Title:       "Is there a changelog?",
			Explanation: "A CHANGELOG file or release notes on the latest release tell users what changed.",
			Needs:       repositoryOnly,
			Evaluate:    changelog,
		},
		{
			ID:          "bug-response",
			Title:       "Is someone responding to bug reports?",
			Explanation: "At least half of the recently opened bug reports got a reply from someone other than the reporter.",
			Needs:       repositoryOnly,
			Evaluate:    bugResponse,
		},
		{
			ID:          "tests",
			Title:       "Are there sufficient tests?",
			Explanation: "The repository contains a test suite.",
			Needs:       repositoryOnly,
			Evaluate:    tests,
		},
		{
			ID:          "latest-language",
			Title:       "Are the tests running with the latest language version?",
			Explanation: "CI ran recently, so it exercises a current toolchain.",
			Needs:       repositoryOnly,
			Evaluate:    latestLanguage,
		},
		{
			ID:          "latest-integration",
			Title:       "Are the tests running with the latest integration version?",
			Explanation: "A dependency update bot keeps integrations current.",
			Needs:       repositoryOnly,
			Evaluate:    latestIntegration,
		},
		{
			ID:          "ci-configured",
			Title:       "Is there a Continuous Integration (CI) configuration?",
			Explanation: "The repository defines CI workflows.",
			Needs:       repositoryOnly,
			Evaluate:    ciConfigured,
		},
		{
			ID:          "ci-passing",
			Title:       "Is the CI passing?",
			Explanation: "The latest CI run on the default branch succeeded.",
			Needs:       repositoryOnly,
			Evaluate:    ciPassing,
		},
		{
			ID:          "usage",
			Title:       "Does it seem relatively well used?",
			Explanation: fmt.Sprintf("At least %d downloads from the registry.", MinDownloads),
			Needs:       registryOnly,
			Evaluate:    usage,
		},
		{
			ID:          "recent-commit",
			Title:       "Has there been a commit in the last year?",
			Explanation: "The repository saw a commit within 365 days.",
			Needs:       repositoryOnly,
			Evaluate:    recentCommit,
		},
		{
			ID:          "recent-release",
			Title:       "Has there been a release in the last year?",
			Explanation: "A version was published to the registry within 365 days.",
			Needs:       registryOnly,
			Evaluate:    recentRelease,
		},
		{
			ID:          "license",
			Title:       "Does it have a permissive license?",
			Explanation: "The declared SPDX license expression is satisfied by a permissive license.",
			Needs:       registryOnly,
			Evaluate:    license,
		},
		{
			ID:          "bus-factor",
			Title:       "Does it have more than one contributor?",
			Explanation: fmt.Sprintf("At least %d people contributed to the repository.", MinContributors),
			Needs:       repositoryOnly,
			Evaluate:    busFactor,
		},
		{
			ID:          "branch-protection",
			Title:       "Is the default branch protected?",
			Explanation: "Changes to the default branch go through review or status checks.",
			Needs:       repositoryOnly,
			Evaluate:    branchProtection,
		},
	}
}

func productionReady(in Input) Verdict {
	b := in.Registry
	if b.LatestVersion == "" {
		return Undetermined("registry reports no latest version")
	}
	v, err := semver.NewVersion(b.LatestVersion)
	if err != nil {
		return Undetermined("latest version %q is not semantic", b.LatestVersion)
	}
	if v.Prerelease() != "" {
		return Failed("latest version %s is a pre-release", v)
	}
	if v.Major() >= 1 {
		return Passed("latest version %s is stable", v)
	}
	if v.Minor() == 0 {
		return Failed("latest version %s is below 0.1", v)
	}
	if b.Downloads == nil {
		return Undetermined("latest version %s is pre-1.0 and downloads are not reported", v)
	}
	if *b.Downloads >= MinDownloadsForMinor {
		return Passed("latest version %s with %d downloads", v, *b.Downloads)
	}
	return Failed("latest version %s has only %d downloads", v, *b.Downloads)
}

func documentation(in Input) Verdict {
	if u := in.Registry.DocumentationURL; u != "" {
		return Passed("documentation published at %s", u)
	}
	switch r := in.Repository.HasReadme; {
	case r == nil:
		return Undetermined("no documentation URL and README presence is not reported")
	case *r:
		return Passed("repository has a README")
	}
	return Failed("no documentation URL and no README")
}

func changelog(in Input) Verdict {
	r := in.Repository
	if r.HasChangelog != nil && *r.HasChangelog {
		return Passed("repository has a changelog file")
	}
	if hasReleaseNotes(r.LatestReleaseNotes) {
		return Passed("latest release has notes")
	}
	if r.HasChangelog == nil {
		return Undetermined("changelog presence is not reported")
	}
	return Failed("no changelog file and no release notes")
}

func bugResponse(in Input) Verdict {
	r := in.Repository
	if r.RecentBugReports == nil {
		return Undetermined("bug reports are not reported")
	}
	total := *r.RecentBugReports
	if total == 0 {
		return Undetermined("no recent bug reports to judge by")
	}
	if r.RespondedBugReports*2 >= total {
		return Passed("%d of %d recent bug reports got a response", r.RespondedBugReports, total)
	}
	return Failed("only %d of %d recent bug reports got a response", r.RespondedBugReports, total)
}

func tests(in Input) Verdict {
	return flag(in.Repository.HasTests, "repository has a test suite", "no test suite found", "test suite presence")
}

func latestLanguage(in Input) Verdict {
	r := in.Repository
	if r.LatestCIRunAt == nil {
		return Undetermined("no CI run reported")
	}
	age := r.Age(*r.LatestCIRunAt)
	if age <= CIWindow {
		return Passed("CI ran %s ago", days(age))
	}
	return Failed("last CI run was %s ago", days(age))
}

func latestIntegration(in Input) Verdict {
	return flag(in.Repository.HasUpdateBot, "dependency update bot configured", "no dependency update bot configured", "update bot configuration")
}

func ciConfigured(in Input) Verdict {
	r := in.Repository
	if r.CIConfigured != nil && *r.CIConfigured && len(r.CIWorkflows) > 0 {
		return Passed("%d CI workflow(s) configured", len(r.CIWorkflows))
	}
	return flag(r.CIConfigured, "CI configured", "no CI configuration", "CI configuration")
}

func ciPassing(in Input) Verdict {
	switch c := in.Repository.LatestCIConclusion; c {
	case "":
		return Undetermined("no completed CI run on the default branch")
	case "success":
		return Passed("latest CI run succeeded")
	default:
		return Failed("latest CI run concluded %q", c)
	}
}

func usage(in Input) Verdict {
	d := in.Registry.Downloads
	if d == nil {
		return Undetermined("download count is not reported")
	}
	if *d >= MinDownloads {
		return Passed("%d downloads", *d)
	}
	return Failed("only %d downloads", *d)
}

func recentCommit(in Input) Verdict {
	r := in.Repository
	return within(r.Meta, r.LastCommitAt, Year, "commit")
}

func recentRelease(in Input) Verdict {
	b := in.Registry
	return within(b.Meta, b.LatestReleaseAt, Year, "release")
}

func license(in Input) Verdict {
	b := in.Registry
	if b.License == "" {
		if b.Missing("license") {
			return Undetermined("license is not reported")
		}
		return Failed("no license declared")
	}
	ok, err := spdxexp.Satisfies(b.License, Permissive)
	if err != nil {
		return Undetermined("license %q is not a valid SPDX expression", b.License)
	}
	if ok {
		return Passed("%s is permissive", b.License)
	}
	return Failed("%s is not permissive", b.License)
}

func busFactor(in Input) Verdict {
	c := in.Repository.Contributors
	if c == nil {
		return Undetermined("contributor count is not reported")
	}
	if *c >= MinContributors {
		return Passed("%d contributors", *c)
	}
	return Failed("only %d contributor(s)", *c)
}

func branchProtection(in Input) Verdict {
	r := in.Repository
	branch := r.DefaultBranch
	if branch == "" {
		branch = "default branch"
	}
	return flag(r.BranchProtected, branch+" is protected", branch+" is not protected", "branch protection")
}

func flag(v *bool, pass, fail, what string) Verdict {
	switch {
	case v == nil:
		return Undetermined("%s is not reported", what)
	case *v:
		return Passed("%s", pass)
	}
	return Failed("%s", fail)
}

func within(m source.Meta, t *time.Time, limit time.Duration, what string) Verdict {
	if t == nil {
		if m.Missing(what) || !m.Complete {
			return Undetermined("last %s is not reported", what)
		}
		return Failed("no %s found", what)
	}
	age := m.Age(*t)
	if age <= limit {
		return Passed("last %s %s ago", what, days(age))
	}
	return Failed("last %s %s ago", what, days(age))
}

func days(d time.Duration) string {
	n := int(d / (24 * time.Hour))
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
