// Package pkg provides the core libraries behind wmt, a checker that grades
// open-source packages against the "well-maintained test" checklist.
//
// # Overview
//
// The checklist asks fifteen yes/no questions about a package: is it
// production ready, is there a changelog, are bugs answered, does CI pass,
// and so on. Each question is a [criteria.Spec] that evaluates signals
// collected from a package registry and the package's source repository.
//
// The pkg directory is organized into these areas:
//
//  1. [criteria] - The checklist itself (rule registry and verdicts)
//  2. [check] - Orchestration (runner, scope, aggregation of outcomes)
//  3. [source] - Signal model and the adapters that gather it
//  4. [integrations] - External API clients (crates.io, npm, PyPI, GitHub)
//  5. [fetch] and [httputil] - Request deduplication, scheduling and retries
//  6. [deps] - Manifest parsing and package identity
//  7. [report] - JSON/YAML export and run persistence
//
// # Data Flow
//
//	Package argument or manifest
//	         ↓
//	    [deps] package (identities)
//	         ↓
//	    [source/adapters] package (registry + repository signals)
//	         ↓
//	    [criteria] package (one verdict per question)
//	         ↓
//	    [check] package (per-package outcome and run summary)
//	         ↓
//	    table / JSON / YAML
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/olamyy/wmt/pkg/check"
//	    "github.com/olamyy/wmt/pkg/deps"
//	    "github.com/olamyy/wmt/pkg/source"
//	    "github.com/olamyy/wmt/pkg/source/adapters"
//	)
//
//	id, _ := deps.ParseIdentity("serde", source.Cargo)
//	adapter := adapters.New(adapters.DefaultClients(nil, 0, ""))
//	runner := check.NewRunner(adapter, check.DefaultConfig())
//	result, _ := runner.Run(context.Background(), []source.Identity{id}, check.AllCriteria())
//	fmt.Println(result.Summary.Outcome)
package pkg
