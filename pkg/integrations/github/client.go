package github

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/httputil"
	"github.com/olamyy/wmt/pkg/integrations"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

const (
	// BugWindow bounds how old a bug report may be to count as recent.
	BugWindow = 365 * 24 * time.Hour
	// BugSample is how many of the most recent bug reports are inspected
	// for responses.
	BugSample = 10

	signalConcurrency = 4
)

// Gap names recorded in [Repository.Gaps].
const (
	GapFiles            = "files"
	GapContributors     = "contributors"
	GapCommit           = "commit"
	GapWorkflows        = "workflows"
	GapCIRun            = "ci-run"
	GapBranchProtection = "branch-protection"
	GapRelease          = "release"
	GapBugs             = "bugs"
	GapPullRequests     = "pull-requests"
)

// Client provides access to the GitHub API for repository maintenance
// signals. It caches whole [Repository] values, never individual calls.
type Client struct {
	*integrations.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty token for unauthenticated requests (60 requests/hour).
// Cache keys are scoped to the token so that answers fetched with one
// token are never served to another.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	c := &Client{
		Client:  integrations.NewClient(backend, "github:", cacheTTL, headers),
		baseURL: DefaultBaseURL,
		now:     time.Now,
	}
	c.SetKeyer(cache.CredentialScope(cache.NewDefaultKeyer(), token))
	return c
}

// SetBaseURL points the client at another API root (GitHub Enterprise or a
// test server).
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchRepository gathers the maintenance signals of owner/name.
// If refresh is true, cached data is bypassed.
//
// Only the repository lookup itself is mandatory: a missing repository
// returns [integrations.ErrNotFound]. Any other signal that fails is
// recorded in Gaps, except rate limiting, an open circuit or cancellation,
// which fail the whole fetch so that it can be retried later.
func (c *Client) FetchRepository(ctx context.Context, owner, name string, refresh bool) (*Repository, error) {
	if err := ValidateRepoRef(owner, name); err != nil {
		return nil, fmt.Errorf("%w: github repo %s/%s: %v", integrations.ErrNotFound, owner, name, err)
	}
	key := "repo:" + strings.ToLower(owner+"/"+name)

	var r Repository
	err := c.Cached(ctx, key, refresh, &r, func() error {
		return c.fetch(ctx, owner, name, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type signal struct {
	gap   string
	fetch func(ctx context.Context, base string, r *Repository) error
}

func (c *Client) fetch(ctx context.Context, owner, name string, r *Repository) error {
	base := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name)

	var info apiRepoResponse
	if err := c.Get(ctx, base, &info); err != nil {
		if integrations.IsNotFound(err) {
			return fmt.Errorf("%w: github repo %s/%s", err, owner, name)
		}
		return err
	}
	if info.Name == "" {
		return fmt.Errorf("%w: github repo %s/%s has no name", integrations.ErrMalformed, owner, name)
	}
	*r = Repository{
		Owner:         info.Owner.Login,
		Name:          info.Name,
		DefaultBranch: info.DefaultBranch,
		Archived:      info.Archived,
	}
	if r.Owner == "" {
		r.Owner = owner
	}

	signals := []signal{
		{GapFiles, c.files},
		{GapContributors, c.contributors},
		{GapCommit, c.lastCommit},
		{GapWorkflows, c.workflows},
		{GapCIRun, c.latestRun},
		{GapBranchProtection, c.branchProtection},
		{GapRelease, c.latestRelease},
		{GapBugs, c.bugs},
		{GapPullRequests, c.openPulls},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signalConcurrency)
	for _, s := range signals {
		g.Go(func() error {
			err := s.fetch(gctx, base, r)
			if err == nil {
				return nil
			}
			if fatal(err) {
				return err
			}
			mu.Lock()
			r.Gaps = append(r.Gaps, s.gap)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if r.OpenPullRequests != nil {
		open := max(info.OpenIssues-*r.OpenPullRequests, 0)
		r.OpenIssues = &open
	}
	slices.Sort(r.Gaps)
	return nil
}

// fatal reports whether a failed signal must fail the whole fetch.
func fatal(err error) bool {
	var rl *integrations.RateLimitError
	return errors.As(err, &rl) ||
		errors.Is(err, httputil.ErrUpstreamDown) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// statusIs reports whether err is an unexpected answer with the given code.
func statusIs(err error, code int) bool {
	var se *integrations.StatusError
	return errors.As(err, &se) && se.Code == code
}
