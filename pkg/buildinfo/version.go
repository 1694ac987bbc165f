// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/olamyy/wmt/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/olamyy/wmt/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/olamyy/wmt/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	// Set via ldflags: -X github.com/olamyy/wmt/pkg/buildinfo.Version=...
	Version = "dev"

	// Commit is the git commit SHA.
	// Set via ldflags: -X github.com/olamyy/wmt/pkg/buildinfo.Commit=...
	Commit = "none"

	// Date is the build timestamp.
	// Set via ldflags: -X github.com/olamyy/wmt/pkg/buildinfo.Date=...
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Homepage is sent with every outbound request so registry operators can
// reach the maintainers.
const Homepage = "https://github.com/olamyy/wmt"

// UserAgent returns the User-Agent header value for outbound requests,
// e.g. "wmt/v1.2.3 (+https://github.com/olamyy/wmt)".
func UserAgent() string {
	return fmt.Sprintf("wmt/%s (+%s)", Version, Homepage)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
