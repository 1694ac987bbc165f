package rust

import (
	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// Language describes Rust crates published to crates.io.
var Language = &deps.Language{
	Name:      "rust",
	Ecosystem: source.Cargo,
	Manifests: []deps.ManifestParser{&CargoToml{}},
}
