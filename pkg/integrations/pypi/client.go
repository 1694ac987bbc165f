package pypi

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/integrations"
)

var nameRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName applies PEP 503 normalization.
func NormalizeName(name string) string {
	return nameRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// PackageInfo holds metadata for a Python package from PyPI and pypistats.
//
// Zero values: string fields are empty when PyPI did not report them;
// release times are nil when no files were uploaded; download counts are
// nil when pypistats could not be reached.
type PackageInfo struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	VersionCount     int               `json:"version_count"`
	FirstReleaseAt   *time.Time        `json:"first_release_at,omitempty"`
	LatestReleaseAt  *time.Time        `json:"latest_release_at,omitempty"`
	License          string            `json:"license,omitempty"`
	Yanked           bool              `json:"yanked,omitempty"`
	Summary          string            `json:"summary,omitempty"`
	HomePage         string            `json:"homepage,omitempty"`
	DocumentationURL string            `json:"documentation_url,omitempty"`
	ProjectURLs      map[string]string `json:"project_urls,omitempty"`

	// Downloads sums the last 180 days pypistats keeps (mirrors excluded);
	// RecentDownloads is the last month.
	Downloads       *int64 `json:"downloads,omitempty"`
	RecentDownloads *int64 `json:"recent_downloads,omitempty"`
}

// Client provides access to the PyPI JSON API and pypistats.org.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL  string
	statsURL string
}

// NewClient creates a PyPI client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil disables it)
//   - cacheTTL: How long responses are cached
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:   integrations.NewClient(backend, "pypi:", cacheTTL, nil),
		baseURL:  "https://pypi.org/pypi",
		statsURL: "https://pypistats.org/api/packages",
	}
}

// SetBaseURLs points the client at other PyPI and pypistats endpoints.
func (c *Client) SetBaseURLs(pypi, stats string) {
	c.baseURL, c.statsURL = pypi, stats
}

// FetchPackage retrieves metadata for a Python package.
//
// The pkg parameter is normalized automatically (PEP 503).
//
// Returns:
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for connection failures and 5xx
//   - [integrations.ErrMalformed] for undecodable answers
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = NormalizeName(pkg)

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
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if integrations.IsNotFound(err) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}
	if data.Info.Version == "" {
		return fmt.Errorf("%w: pypi package %s: no version in info", integrations.ErrMalformed, pkg)
	}

	urls := make(map[string]string, len(data.Info.ProjectURLs))
	for k, v := range data.Info.ProjectURLs {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}

	*info = PackageInfo{
		Name:         data.Info.Name,
		Version:      data.Info.Version,
		VersionCount: len(data.Releases),
		Summary:      data.Info.Summary,
		License:      extractLicense(data.Info.LicenseExpression, data.Info.License, data.Info.Classifiers),
		Yanked:       data.Info.Yanked,
		ProjectURLs:  urls,
		HomePage:     data.Info.HomePage,
	}
	info.DocumentationURL = data.Info.DocsURL
	for label, u := range urls {
		if info.DocumentationURL == "" && strings.EqualFold(strings.TrimSpace(label), "documentation") {
			info.DocumentationURL = u
		}
	}

	for version, files := range data.Releases {
		for _, f := range files {
			t := f.UploadTime
			if info.FirstReleaseAt == nil || t.Before(*info.FirstReleaseAt) {
				info.FirstReleaseAt = &t
			}
			if version == data.Info.Version && (info.LatestReleaseAt == nil || t.Before(*info.LatestReleaseAt)) {
				info.LatestReleaseAt = &t
			}
		}
	}

	info.Downloads, info.RecentDownloads = c.downloads(ctx, pkg)
	return nil
}

// downloads returns nil counts when pypistats fails; they are optional.
func (c *Client) downloads(ctx context.Context, pkg string) (total, recent *int64) {
	var overall overallResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/overall?mirrors=false", c.statsURL, pkg), &overall); err == nil {
		var sum int64
		for _, d := range overall.Data {
			if d.Category == "without_mirrors" {
				sum += d.Downloads
			}
		}
		total = &sum
	}
	var r recentResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/recent", c.statsURL, pkg), &r); err == nil {
		recent = &r.Data.LastMonth
	}
	return total, recent
}

type apiResponse struct {
	Info     apiInfo                 `json:"info"`
	Releases map[string][]apiRelease `json:"releases"`
}

type apiInfo struct {
	Name              string         `json:"name"`
	Version           string         `json:"version"`
	Summary           string         `json:"summary"`
	License           string         `json:"license"`
	LicenseExpression string         `json:"license_expression"`
	Classifiers       []string       `json:"classifiers"`
	ProjectURLs       map[string]any `json:"project_urls"`
	HomePage          string         `json:"home_page"`
	DocsURL           string         `json:"docs_url"`
	Yanked            bool           `json:"yanked"`
}

type apiRelease struct {
	UploadTime time.Time `json:"upload_time_iso_8601"`
	Yanked     bool      `json:"yanked"`
}

type overallResponse struct {
	Data []struct {
		Category  string `json:"category"`
		Downloads int64  `json:"downloads"`
	} `json:"data"`
}

type recentResponse struct {
	Data struct {
		LastMonth int64 `json:"last_month"`
	} `json:"data"`
}

// classifierSPDX maps trove license classifiers to SPDX identifiers.
var classifierSPDX = map[string]string{
	"MIT License":                                   "MIT",
	"MIT No Attribution License (MIT-0)":            "MIT-0",
	"Apache Software License":                       "Apache-2.0",
	"BSD License":                                   "BSD-3-Clause",
	"ISC License (ISCL)":                            "ISC",
	"Mozilla Public License 2.0 (MPL 2.0)":          "MPL-2.0",
	"Python Software Foundation License":            "PSF-2.0",
	"The Unlicense (Unlicense)":                     "Unlicense",
	"zlib/libpng License":                           "Zlib",
	"Boost Software License 1.0 (BSL-1.0)":          "BSL-1.0",
	"GNU General Public License v2 (GPLv2)":         "GPL-2.0-only",
	"GNU General Public License v3 (GPLv3)":         "GPL-3.0-only",
	"GNU Lesser General Public License v2 (LGPLv2)": "LGPL-2.0-only",
	"GNU Lesser General Public License v3 (LGPLv3)": "LGPL-3.0-only",
	"GNU Affero General Public License v3":          "AGPL-3.0-only",
}

// extractLicense returns the best SPDX-ish license string PyPI offers: the
// PEP 639 license expression, else a mapped trove classifier, else the free
// text license field when it is short enough to be an identifier.
func extractLicense(expression, license string, classifiers []string) string {
	if e := strings.TrimSpace(expression); e != "" {
		return e
	}

	var ids []string
	for _, c := range classifiers {
		if !strings.HasPrefix(c, "License :: ") {
			continue
		}
		parts := strings.Split(c, " :: ")
		if id, ok := classifierSPDX[parts[len(parts)-1]]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		return strings.Join(ids, " OR ")
	}

	license = strings.TrimSpace(license)
	if license != "" && len(license) < 64 && !strings.Contains(license, "\n") {
		return license
	}
	return ""
}
