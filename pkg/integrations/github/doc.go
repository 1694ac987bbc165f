// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package gathers the maintenance signals of a repository from
// GitHub (https://api.github.com): recent commits, Actions workflows and
// their latest run, well-known files, branch protection, releases,
// contributor count and how bug reports are answered.
//
// # Usage
//
//	client := github.NewClient(nil, os.Getenv("GITHUB_TOKEN"), time.Hour)
//	repo, err := client.FetchRepository(ctx, "serde-rs", "serde", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(repo.DefaultBranch, *repo.Contributors)
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. One repository costs
// roughly a dozen requests.
//
// # Partial answers
//
// Only the repository itself is mandatory. Signals that fail are listed in
// [Repository.Gaps] and their fields stay nil, so a caller can tell
// "GitHub said no" from "we could not ask".
//
// # Caching
//
// Whole [Repository] values are cached under a key scoped to the token.
// Pass refresh=true to bypass the cache.
package github
