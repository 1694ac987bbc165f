// Package integrations provides HTTP clients for the package registry and
// code hosting APIs wmt reads signals from.
//
// # Overview
//
// Each remote has its own subpackage:
//
//   - [crates]: Rust crates.io
//   - [npm]: npm registry and download counts
//   - [pypi]: Python Package Index and pypistats
//   - [github]: GitHub REST API for repository signals
//
// Clients are pure transport: they decode API responses into plain structs
// and report failures as the error values of this package ([ErrNotFound],
// [ErrNetwork], [ErrMalformed], [*RateLimitError], [*StatusError]). Turning
// those into check data and fetch errors is the job of pkg/source/adapters.
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all clients:
//
//   - optional response caching via [cache.Cache] (off unless a backend is
//     configured), keyed per namespace
//   - per-host circuit breaking via [httputil.Breakers]
//   - the DNS-caching transport from [httputil.NewClient]
//   - HTTP and cache events through pkg/observability
//   - a wmt User-Agent on every request (see pkg/buildinfo)
//
// Clients never retry; the check scheduler decides whether a failure is
// worth another attempt.
//
// [crates]: github.com/olamyy/wmt/pkg/integrations/crates
// [npm]: github.com/olamyy/wmt/pkg/integrations/npm
// [pypi]: github.com/olamyy/wmt/pkg/integrations/pypi
// [github]: github.com/olamyy/wmt/pkg/integrations/github
// [cache.Cache]: github.com/olamyy/wmt/pkg/cache.Cache
// [httputil.Breakers]: github.com/olamyy/wmt/pkg/httputil.Breakers
// [httputil.NewClient]: github.com/olamyy/wmt/pkg/httputil.NewClient
package integrations
