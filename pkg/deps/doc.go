// Package deps turns user input into the package identities wmt checks.
//
// Identities come from two places:
//
//   - Command line arguments, parsed by [ParseIdentity]: bare names,
//     "ecosystem:name@version", package URLs ("pkg:cargo/serde@1.0") and
//     GitHub repository URLs.
//   - Manifest files (Cargo.toml, package.json, requirements.txt,
//     pyproject.toml), read by the [ManifestParser] implementations in the
//     language subpackages.
//
// # Languages
//
// Each language subpackage (rust, javascript, python) exports a [Language]
// value naming its ecosystem and manifest parsers. The languages package
// collects them so callers can detect a manifest by filename:
//
//	parser, err := languages.DetectManifest("Cargo.toml")
//	result, err := parser.Parse("Cargo.toml")
//	ids := result.Identities(false)
//
// # Normalization
//
// Manifests often name one package several times (a normal and a dev
// dependency, or a target-specific entry). [Normalize] keeps one entry per
// normalized name, preferring the most significant scope.
package deps
