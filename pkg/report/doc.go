// Package report serializes run results and stores them.
//
// # Formats
//
// A [check.RunResult] can be written as JSON or YAML with [Write]; the
// terminal table lives in the CLI. Both encodings use the same field names,
// so a report written by `wmt check --format yaml` and one returned by
// `POST /check` describe a run identically:
//
//	id: 6f1c...
//	packages:
//	  - package: {ecosystem: cargo, name: serde}
//	    verdicts:
//	      - id: license
//	        status: pass
//	        reason: MIT OR Apache-2.0
//	summary:
//	  outcome: pass
//
// [Export] writes a report to a file, picking the format from the file
// extension.
//
// # Storage
//
// [MongoStore] keeps run results in the "runs" collection of the "wmt"
// database, keyed by run id. It backs `wmt check --save` and the
// `GET /runs/{id}` endpoint of `wmt serve`.
package report
