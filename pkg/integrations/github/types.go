package github

import "time"

// Repository holds the maintenance signals gathered for one repository.
//
// Pointer fields are nil when the signal could not be obtained; the names
// of those signals are listed in Gaps. A signal GitHub answered with "none"
// (no release, no workflows) is not a gap.
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`

	// OpenIssues excludes pull requests.
	OpenIssues       *int       `json:"open_issues,omitempty"`
	OpenPullRequests *int       `json:"open_pull_requests,omitempty"`
	Contributors     *int       `json:"contributors,omitempty"`
	LastCommitAt     *time.Time `json:"last_commit_at,omitempty"`

	Workflows []string     `json:"workflows,omitempty"`
	CIFiles   []string     `json:"ci_files,omitempty"`
	LatestRun *WorkflowRun `json:"latest_run,omitempty"`

	Files           *Files     `json:"files,omitempty"`
	BranchProtected *bool      `json:"branch_protected,omitempty"`
	LatestRelease   *Release   `json:"latest_release,omitempty"`
	Bugs            *BugReport `json:"bugs,omitempty"`

	Gaps []string `json:"gaps,omitempty"`
}

// Files records which well-known files the repository carries.
type Files struct {
	Readme    bool `json:"readme"`
	Changelog bool `json:"changelog"`
	Tests     bool `json:"tests"`
	Funding   bool `json:"funding"`
	UpdateBot bool `json:"update_bot"`
}

// WorkflowRun is the latest completed Actions run on the default branch.
type WorkflowRun struct {
	Name       string    `json:"name"`
	Conclusion string    `json:"conclusion"`
	CreatedAt  time.Time `json:"created_at"`
}

// Release is the latest published release.
type Release struct {
	Tag         string    `json:"tag"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body,omitempty"`
}

// BugReport summarizes the bug-labelled issues opened in the last year.
type BugReport struct {
	// Sampled is how many of the most recent reports were inspected.
	Sampled int `json:"sampled"`
	// Responded counts sampled reports with a comment from someone other
	// than the reporter.
	Responded int `json:"responded"`
}

type apiRepoResponse struct {
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	DefaultBranch string     `json:"default_branch"`
	OpenIssues    int        `json:"open_issues_count"`
	PushedAt      *time.Time `json:"pushed_at"`
	Archived      bool       `json:"archived"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type apiContentItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
}

type apiCommit struct {
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type apiWorkflows struct {
	TotalCount int `json:"total_count"`
	Workflows  []struct {
		Name  string `json:"name"`
		Path  string `json:"path"`
		State string `json:"state"`
	} `json:"workflows"`
}

type apiRuns struct {
	WorkflowRuns []struct {
		Name       string    `json:"name"`
		Conclusion string    `json:"conclusion"`
		CreatedAt  time.Time `json:"created_at"`
	} `json:"workflow_runs"`
}

type apiBranch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
}

type apiRelease struct {
	TagName     string     `json:"tag_name"`
	PublishedAt *time.Time `json:"published_at"`
	Body        string     `json:"body"`
}

type apiUser struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

type apiIssue struct {
	Number      int       `json:"number"`
	User        apiUser   `json:"user"`
	Comments    int       `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	PullRequest *struct{} `json:"pull_request"`
}

type apiComment struct {
	User apiUser `json:"user"`
}
