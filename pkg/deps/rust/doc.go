// Package rust reads the dependencies of Rust projects.
//
// # Manifest Parsing
//
// Parse Cargo.toml files:
//
//	result, _ := (&rust.CargoToml{}).Parse("Cargo.toml")
//	ids := result.Identities(false)
//
// Cargo.toml contains direct dependencies only; wmt checks those and does
// not crawl transitive ones.
package rust
