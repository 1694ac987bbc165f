// Package languages provides the complete list of supported language ecosystems.
//
// This package exists to break import cycles: the individual language packages
// (python, rust, javascript) import pkg/deps, so pkg/deps cannot import them
// back. Consumers that need the full language list import this package.
package languages

import (
	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/deps/javascript"
	"github.com/olamyy/wmt/pkg/deps/python"
	"github.com/olamyy/wmt/pkg/deps/rust"
	"github.com/olamyy/wmt/pkg/source"
)

// All is the canonical list of supported languages.
var All = []*deps.Language{
	rust.Language,
	javascript.Language,
	python.Language,
}

// Find returns the Language with the given name or ecosystem, or nil if not found.
func Find(name string) *deps.Language {
	return deps.FindLanguage(name, All)
}

// Parsers returns every manifest parser of every language.
func Parsers() []deps.ManifestParser {
	var out []deps.ManifestParser
	for _, l := range All {
		out = append(out, l.Manifests...)
	}
	return out
}

// DetectManifest returns the parser for the manifest at path.
func DetectManifest(path string) (deps.ManifestParser, error) {
	return deps.DetectManifest(path, Parsers()...)
}

// ParseManifest detects and parses the manifest at path.
func ParseManifest(path string) (*deps.ManifestResult, error) {
	p, err := DetectManifest(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(path)
}

// Ecosystem returns the ecosystem whose manifests include filename.
func Ecosystem(filename string) (source.Ecosystem, bool) {
	for _, l := range All {
		for _, m := range l.Manifests {
			if m.Supports(filename) {
				return l.Ecosystem, true
			}
		}
	}
	return "", false
}
