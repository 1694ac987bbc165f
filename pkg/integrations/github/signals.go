package github

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/olamyy/wmt/pkg/integrations"
)

func (c *Client) files(ctx context.Context, base string, r *Repository) error {
	var root []apiContentItem
	if err := c.Get(ctx, base+"/contents", &root); err != nil {
		// An empty repository has no contents at all.
		if integrations.IsNotFound(err) {
			r.Files = &Files{}
			return nil
		}
		return err
	}

	f := &Files{}
	hasDotGitHub := false
	for _, it := range root {
		name := strings.ToLower(it.Name)
		if it.Type == "dir" {
			switch {
			case name == ".github":
				hasDotGitHub = true
			case name == ".circleci":
				r.CIFiles = append(r.CIFiles, it.Path)
			case isTestDir(name):
				f.Tests = true
			}
			continue
		}
		switch {
		case isReadme(name):
			f.Readme = true
		case isChangelog(name):
			f.Changelog = true
		case isTestConfig(name):
			f.Tests = true
		case isRenovate(name):
			f.UpdateBot = true
		case name == "funding.yml":
			f.Funding = true
		case isCIConfig(name):
			r.CIFiles = append(r.CIFiles, it.Path)
		}
	}

	if hasDotGitHub {
		var dir []apiContentItem
		if err := c.Get(ctx, base+"/contents/.github", &dir); err != nil && !integrations.IsNotFound(err) {
			return err
		}
		for _, it := range dir {
			name := strings.ToLower(it.Name)
			switch {
			case name == "funding.yml" || name == "funding.yaml":
				f.Funding = true
			case name == "dependabot.yml" || name == "dependabot.yaml" || isRenovate(name):
				f.UpdateBot = true
			}
		}
	}

	r.Files = f
	return nil
}

func isReadme(name string) bool { return hasStem(name, "readme") }

func isChangelog(name string) bool {
	return hasStem(name, "changelog") || hasStem(name, "changes") ||
		hasStem(name, "history") || hasStem(name, "news") || hasStem(name, "releases")
}

func isTestDir(name string) bool {
	return strings.Contains(name, "test") || name == "spec" || name == "specs"
}

func isTestConfig(name string) bool {
	switch name {
	case "pytest.ini", "tox.ini", "noxfile.py", "conftest.py", "karma.conf.js", ".mocharc.json", ".mocharc.yml":
		return true
	}
	return strings.HasPrefix(name, "jest.config.") || strings.HasPrefix(name, "vitest.config.")
}

func isRenovate(name string) bool {
	switch name {
	case "renovate.json", "renovate.json5", ".renovaterc", ".renovaterc.json":
		return true
	}
	return false
}

func isCIConfig(name string) bool {
	switch name {
	case ".travis.yml", ".gitlab-ci.yml", "appveyor.yml", ".appveyor.yml", "azure-pipelines.yml", ".cirrus.yml", "jenkinsfile":
		return true
	}
	return false
}

// hasStem matches "readme", "README.md", "readme.rst" and the like.
func hasStem(name, stem string) bool {
	return strings.TrimSuffix(name, path.Ext(name)) == stem
}

func (c *Client) contributors(ctx context.Context, base string, r *Repository) error {
	var page []apiUser
	h, err := c.GetResponse(ctx, base+"/contributors?per_page=1&anon=1", nil, &page)
	if err != nil {
		return err
	}
	n := len(page)
	if last, ok := lastPage(h); ok {
		n = last
	}
	r.Contributors = &n
	return nil
}

func (c *Client) lastCommit(ctx context.Context, base string, r *Repository) error {
	var commits []apiCommit
	if err := c.Get(ctx, base+"/commits?per_page=1", &commits); err != nil {
		// 409: the repository is empty.
		if statusIs(err, 409) {
			return nil
		}
		return err
	}
	if len(commits) > 0 {
		t := commits[0].Commit.Committer.Date
		r.LastCommitAt = &t
	}
	return nil
}

func (c *Client) workflows(ctx context.Context, base string, r *Repository) error {
	var data apiWorkflows
	if err := c.Get(ctx, base+"/actions/workflows?per_page=100", &data); err != nil {
		if integrations.IsNotFound(err) {
			return nil
		}
		return err
	}
	for _, w := range data.Workflows {
		if w.State == "active" {
			r.Workflows = append(r.Workflows, w.Name)
		}
	}
	return nil
}

func (c *Client) latestRun(ctx context.Context, base string, r *Repository) error {
	if r.DefaultBranch == "" {
		return fmt.Errorf("%w: no default branch", integrations.ErrMalformed)
	}
	q := url.Values{
		"branch":                {r.DefaultBranch},
		"status":                {"completed"},
		"exclude_pull_requests": {"true"},
		"per_page":              {"1"},
	}
	var data apiRuns
	if err := c.Get(ctx, base+"/actions/runs?"+q.Encode(), &data); err != nil {
		if integrations.IsNotFound(err) {
			return nil
		}
		return err
	}
	if len(data.WorkflowRuns) > 0 {
		run := data.WorkflowRuns[0]
		r.LatestRun = &WorkflowRun{Name: run.Name, Conclusion: run.Conclusion, CreatedAt: run.CreatedAt}
	}
	return nil
}

func (c *Client) branchProtection(ctx context.Context, base string, r *Repository) error {
	if r.DefaultBranch == "" {
		return fmt.Errorf("%w: no default branch", integrations.ErrMalformed)
	}
	var b apiBranch
	if err := c.Get(ctx, base+"/branches/"+url.PathEscape(r.DefaultBranch), &b); err != nil {
		return err
	}
	r.BranchProtected = &b.Protected
	return nil
}

func (c *Client) latestRelease(ctx context.Context, base string, r *Repository) error {
	var rel apiRelease
	if err := c.Get(ctx, base+"/releases/latest", &rel); err != nil {
		if integrations.IsNotFound(err) {
			return nil
		}
		return err
	}
	if rel.PublishedAt != nil {
		r.LatestRelease = &Release{Tag: rel.TagName, PublishedAt: *rel.PublishedAt, Body: strings.TrimSpace(rel.Body)}
	}
	return nil
}

// bugs samples the most recent bug reports opened within BugWindow and
// counts those answered by someone other than the reporter.
func (c *Client) bugs(ctx context.Context, base string, r *Repository) error {
	since := c.now().Add(-BugWindow)
	q := url.Values{
		"labels":    {"bug"},
		"state":     {"all"},
		"sort":      {"created"},
		"direction": {"desc"},
		"since":     {since.UTC().Format(time.RFC3339)},
		"per_page":  {"50"},
	}
	var issues []apiIssue
	if err := c.Get(ctx, base+"/issues?"+q.Encode(), &issues); err != nil {
		return err
	}

	report := &BugReport{}
	for _, is := range issues {
		if report.Sampled == BugSample {
			break
		}
		// The issues endpoint lists pull requests too; since filters on
		// update time, not creation.
		if is.PullRequest != nil || is.CreatedAt.Before(since) {
			continue
		}
		report.Sampled++
		if is.Comments == 0 {
			continue
		}
		answered, err := c.answered(ctx, base, is)
		if err != nil {
			return err
		}
		if answered {
			report.Responded++
		}
	}
	r.Bugs = report
	return nil
}

func (c *Client) answered(ctx context.Context, base string, is apiIssue) (bool, error) {
	var comments []apiComment
	if err := c.Get(ctx, fmt.Sprintf("%s/issues/%d/comments?per_page=30", base, is.Number), &comments); err != nil {
		return false, err
	}
	for _, cm := range comments {
		if cm.User.Type != "Bot" && !strings.EqualFold(cm.User.Login, is.User.Login) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) openPulls(ctx context.Context, base string, r *Repository) error {
	var page []struct{}
	h, err := c.GetResponse(ctx, base+"/pulls?state=open&per_page=1", nil, &page)
	if err != nil {
		return err
	}
	n := len(page)
	if last, ok := lastPage(h); ok {
		n = last
	}
	r.OpenPullRequests = &n
	return nil
}
