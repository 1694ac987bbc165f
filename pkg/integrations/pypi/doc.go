// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Overview
//
// This package fetches package metadata from PyPI (https://pypi.org) and
// download counts from pypistats (https://pypistats.org).
//
// # Usage
//
//	client := pypi.NewClient(nil, time.Hour)
//	pkg, err := client.FetchPackage(ctx, "fastapi", false)  // false = use cache
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(pkg.Name, pkg.Version, pkg.License)
//
// # Licenses
//
// PyPI metadata carries licenses in three shapes. The PEP 639
// license_expression is used as is; otherwise trove classifiers are mapped
// to SPDX identifiers; otherwise a short free-text license field is used.
//
// # Downloads
//
// PyPI itself reports no download counts. pypistats keeps 180 days of
// history, so Downloads is that window (mirrors excluded), not an all-time
// total.
//
// Package names are normalized following PEP 503.
package pypi
