package criteria

import "testing"

func TestHasReleaseNotes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"empty", "", false},
		{"plain", "Fixes a panic when the config is empty.", true},
		{"list", "## What's Changed\n\n* Add retries by @alice in #12\n* Bump deps\n", true},
		{"compare link only", "**Full Changelog**: https://github.com/acme/alpha/compare/v1.0.0...v1.1.0", false},
		{"heading and compare link", "## What's Changed\n\n**Full Changelog**: https://github.com/acme/alpha/compare/v1.0.0...v1.1.0\n", false},
		{"code block", "```\ncargo add alpha\n```\n", true},
		{"rule only", "---\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasReleaseNotes(tt.body); got != tt.want {
				t.Errorf("hasReleaseNotes(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
