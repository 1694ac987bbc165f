// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package fetches package metadata from the npm registry
// (https://registry.npmjs.org) and download counts from the npm download
// API (https://api.npmjs.org/downloads).
//
// # Usage
//
//	client := npm.NewClient(nil, time.Hour)
//	pkg, err := client.FetchPackage(ctx, "express", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(pkg.Name, pkg.Version)
//
// # Version Selection
//
// The client reports the version tagged as "latest" in dist-tags. Release
// times come from the packument's "time" map.
//
// # Downloads
//
// npm does not publish all-time totals. Downloads is the last-year count
// and RecentDownloads the last-month count. A failing download API leaves
// both nil instead of failing the lookup.
package npm
