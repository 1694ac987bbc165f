//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFetchRepository_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set, skipping integration test")
	}

	client := NewClient(nil, token, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tests := []struct {
		name    string
		owner   string
		repo    string
		wantErr bool
	}{
		{"serde", "serde-rs", "serde", false},
		{"nonexistent", "nonexistent-owner-12345", "nonexistent-repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := client.FetchRepository(ctx, tt.owner, tt.repo, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("FetchRepository(%q, %q) error = %v, wantErr %v", tt.owner, tt.repo, err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if r.DefaultBranch == "" {
					t.Error("DefaultBranch should not be empty")
				}
				if r.Contributors == nil || *r.Contributors < 2 {
					t.Errorf("Contributors = %v", r.Contributors)
				}
			}
		})
	}
}
