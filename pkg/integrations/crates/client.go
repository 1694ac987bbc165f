package crates

import (
	"context"
	"fmt"
	"time"

	"github.com/olamyy/wmt/pkg/buildinfo"
	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/integrations"
)

// CrateInfo holds what crates.io reports about a crate.
//
// Version is max_stable_version when the crate has a stable release and
// max_version otherwise. License and Yanked describe that version.
//
// Zero values: string fields are empty when crates.io did not report them;
// release times are nil when the crate has no versions.
type CrateInfo struct {
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	VersionCount    int        `json:"version_count"`
	FirstReleaseAt  *time.Time `json:"first_release_at,omitempty"`
	LatestReleaseAt *time.Time `json:"latest_release_at,omitempty"`
	License         string     `json:"license,omitempty"`
	Yanked          bool       `json:"yanked,omitempty"`
	Downloads       int64      `json:"downloads"`
	RecentDownloads int64      `json:"recent_downloads"`
	Documentation   string     `json:"documentation,omitempty"`
	Repository      string     `json:"repository,omitempty"`
	HomePage        string     `json:"homepage,omitempty"`
	Description     string     `json:"description,omitempty"`
}

// Client provides access to the crates.io package registry API.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// UserAgent identifies wmt to crates.io as its crawler policy asks: a
// product name plus a contact URL.
var UserAgent = buildinfo.UserAgent()

// NewClient creates a crates.io client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil or a NullCache disables it)
//   - cacheTTL: How long responses are cached
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{"User-Agent": UserAgent}
	return &Client{
		Client:  integrations.NewClient(backend, "crates:", cacheTTL, headers),
		baseURL: "https://crates.io/api/v1",
	}
}

// SetBaseURL points the client at another crates.io compatible API.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// FetchCrate retrieves metadata for a Rust crate from crates.io.
//
// crates.io resolves names case-insensitively and treats "-" and "_" as
// equivalent, so any spelling of a published name works.
//
// Returns:
//   - [integrations.ErrNotFound] if the crate doesn't exist
//   - [integrations.ErrNetwork] for connection failures and 5xx
//   - [*integrations.RateLimitError] when throttled
//   - [integrations.ErrMalformed] for undecodable answers
func (c *Client) FetchCrate(ctx context.Context, crate string, refresh bool) (*CrateInfo, error) {
	var info CrateInfo
	err := c.Cached(ctx, crate, refresh, &info, func() error {
		return c.fetch(ctx, crate, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, crate string, info *CrateInfo) error {
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, integrations.URLEncode(crate)), &data); err != nil {
		if integrations.IsNotFound(err) {
			return fmt.Errorf("%w: crate %s", err, crate)
		}
		return err
	}
	if data.Crate.Name == "" {
		return fmt.Errorf("%w: crate %s: empty crate object", integrations.ErrMalformed, crate)
	}

	version := data.Crate.MaxStableVersion
	if version == "" {
		version = data.Crate.MaxVersion
	}

	*info = CrateInfo{
		Name:            data.Crate.Name,
		Version:         version,
		VersionCount:    len(data.Versions),
		Downloads:       data.Crate.Downloads,
		RecentDownloads: data.Crate.RecentDownloads,
		Documentation:   data.Crate.Documentation,
		Repository:      data.Crate.Repository,
		HomePage:        data.Crate.HomePage,
		Description:     data.Crate.Description,
	}

	for _, v := range data.Versions {
		created := v.CreatedAt
		if info.FirstReleaseAt == nil || created.Before(*info.FirstReleaseAt) {
			info.FirstReleaseAt = &created
		}
		if v.Num == version {
			info.LatestReleaseAt = &created
			info.License = v.License
			info.Yanked = v.Yanked
		}
	}
	return nil
}

type crateResponse struct {
	Crate struct {
		Name             string `json:"name"`
		MaxVersion       string `json:"max_version"`
		MaxStableVersion string `json:"max_stable_version"`
		Description      string `json:"description"`
		Documentation    string `json:"documentation"`
		Repository       string `json:"repository"`
		HomePage         string `json:"homepage"`
		Downloads        int64  `json:"downloads"`
		RecentDownloads  int64  `json:"recent_downloads"`
	} `json:"crate"`
	Versions []versionResponse `json:"versions"`
}

type versionResponse struct {
	Num       string    `json:"num"`
	CreatedAt time.Time `json:"created_at"`
	License   string    `json:"license"`
	Yanked    bool      `json:"yanked"`
}
