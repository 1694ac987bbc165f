// Package crates provides an HTTP client for the crates.io API.
//
// # Overview
//
// This package fetches crate metadata from crates.io (https://crates.io),
// the Rust community's package registry.
//
// # Usage
//
//	client := crates.NewClient(nil, time.Hour)
//	crate, err := client.FetchCrate(ctx, "serde", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(crate.Name, crate.Version, crate.Downloads)
//
// # CrateInfo
//
// [Client.FetchCrate] returns a [CrateInfo] containing:
//
//   - Name, Version: crate identity (max_stable_version, else max_version)
//   - VersionCount, FirstReleaseAt, LatestReleaseAt: release history
//   - License, Yanked: taken from the selected version
//   - Downloads, RecentDownloads: total and last-90-days counts
//   - Documentation, Repository, HomePage: published URLs
//
// # User-Agent
//
// The client includes a User-Agent header as requested by crates.io policy.
package crates
