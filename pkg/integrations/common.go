package integrations

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/olamyy/wmt/pkg/httputil"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrMalformed is returned when a response cannot be decoded.
	ErrMalformed = errors.New("malformed response")
)

// RateLimitError is returned when the remote asked us to back off.
type RateLimitError struct {
	// RetryAfter is zero when the remote gave no hint.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
	}
	return "rate limited"
}

// StatusError is returned for unexpected non-2xx answers other than 404,
// 5xx and rate limits (e.g. 401 for a revoked token).
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// NewHTTPClient creates an HTTP client with the DNS-caching transport and
// a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return httputil.NewClient(httpTimeout)
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, and git+ prefixes, and removes .git suffixes.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	return strings.TrimSuffix(s, ".git")
}

var repoURLKeys = []string{"source", "source code", "repository", "code", "github", "homepage"}

// PickRepoURL chooses the project URL most likely to be the source
// repository. Well-known labels (Source, Repository, Code, Homepage) are
// tried first, then every other URL, then homepage; the first URL accepted
// by ok wins. Sponsor pages are skipped.
func PickRepoURL(urls map[string]string, homepage string, ok func(string) bool) string {
	match := func(u string) bool {
		return u != "" && !strings.Contains(u, "/sponsors/") && ok(u)
	}

	byLabel := make(map[string]string, len(urls))
	for label, u := range urls {
		byLabel[strings.ToLower(strings.TrimSpace(label))] = u
	}
	for _, key := range repoURLKeys {
		if u := byLabel[key]; match(u) {
			return NormalizeRepoURL(u)
		}
	}
	for _, label := range slices.Sorted(maps.Keys(urls)) {
		if u := urls[label]; match(u) {
			return NormalizeRepoURL(u)
		}
	}
	if match(homepage) {
		return NormalizeRepoURL(homepage)
	}
	return ""
}

// URLEncode percent-encodes a string for use in URL paths.
func URLEncode(s string) string { return url.PathEscape(s) }
