package npm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/integrations"
)

// PackageInfo holds what the npm registry and download API report about a
// package. License, Deprecated and Repository describe the latest version.
type PackageInfo struct {
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	VersionCount    int        `json:"version_count"`
	FirstReleaseAt  *time.Time `json:"first_release_at,omitempty"`
	LatestReleaseAt *time.Time `json:"latest_release_at,omitempty"`
	License         string     `json:"license,omitempty"`
	Deprecated      bool       `json:"deprecated,omitempty"`
	Repository      string     `json:"repository,omitempty"`
	HomePage        string     `json:"homepage,omitempty"`
	Description     string     `json:"description,omitempty"`

	// Downloads covers the last year and RecentDownloads the last month;
	// both are nil when the download API could not be reached.
	Downloads       *int64 `json:"downloads,omitempty"`
	RecentDownloads *int64 `json:"recent_downloads,omitempty"`
}

type Client struct {
	*integrations.Client
	baseURL      string
	downloadsURL string
}

func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:       integrations.NewClient(backend, "npm:", cacheTTL, nil),
		baseURL:      "https://registry.npmjs.org",
		downloadsURL: "https://api.npmjs.org/downloads",
	}
}

// SetBaseURLs points the client at other registry and download APIs.
func (c *Client) SetBaseURLs(registry, downloads string) {
	c.baseURL, c.downloadsURL = registry, downloads
}

func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+integrations.URLEncode(pkg), &data); err != nil {
		if integrations.IsNotFound(err) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	latest := data.DistTags.Latest
	v, ok := data.Versions[latest]
	if !ok {
		return fmt.Errorf("%w: npm package %s: latest version %q not listed", integrations.ErrMalformed, pkg, latest)
	}

	*info = PackageInfo{
		Name:         data.Name,
		Version:      latest,
		VersionCount: len(data.Versions),
		Description:  v.Description,
		License:      extractField(v.License, "type"),
		Deprecated:   v.Deprecated != "",
		Repository:   integrations.NormalizeRepoURL(extractField(v.Repository, "url")),
		HomePage:     v.HomePage,
	}
	if info.License == "" {
		info.License = extractField(data.License, "type")
	}
	if t, ok := data.Time[latest]; ok {
		info.LatestReleaseAt = &t
	}
	if t, ok := data.Time["created"]; ok {
		info.FirstReleaseAt = &t
	}

	info.Downloads = c.downloads(ctx, "last-year", pkg)
	info.RecentDownloads = c.downloads(ctx, "last-month", pkg)
	return nil
}

// downloads returns nil when the download API fails; the counts are
// optional and must not fail the whole lookup.
func (c *Client) downloads(ctx context.Context, period, pkg string) *int64 {
	var data downloadsResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/point/%s/%s", c.downloadsURL, period, pkg), &data); err != nil {
		return nil
	}
	return &data.Downloads
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags distTags                  `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
	Time     map[string]time.Time      `json:"time"`
	License  any                       `json:"license"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Description string `json:"description"`
	License     any    `json:"license"`
	Repository  any    `json:"repository"`
	HomePage    string `json:"homepage"`
	Deprecated  string `json:"deprecated"`
}

type downloadsResponse struct {
	Downloads int64 `json:"downloads"`
}
