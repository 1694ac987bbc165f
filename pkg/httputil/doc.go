// Package httputil provides the HTTP plumbing shared by the registry and
// GitHub clients.
//
// # Transport
//
// [NewClient] returns an *http.Client whose dialer resolves hosts through a
// process-wide DNS cache (github.com/rs/dnscache), refreshed every five
// minutes. A check of a large manifest talks to the same three or four
// hosts hundreds of times; caching lookups keeps the resolver out of the
// hot path.
//
// # Circuit breaking
//
// [Breakers] keeps one circuit breaker per host
// (github.com/rubyist/circuitbreaker). After five consecutive transport
// failures or 5xx answers a host is considered down and calls fail fast
// with [ErrUpstreamDown] until the breaker's backoff elapses. Retries are
// not done here; the check scheduler owns them.
//
// # Rate limit hints
//
// [RateLimited] recognizes rate limit answers (429, and GitHub's 403 with an
// exhausted quota) and [RetryAfter] extracts the backoff hint from
// Retry-After or X-RateLimit-Reset.
package httputil
