package javascript

import (
	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// Language describes JavaScript packages published to npm.
var Language = &deps.Language{
	Name:      "javascript",
	Ecosystem: source.NPM,
	Manifests: []deps.ManifestParser{&PackageJSON{}},
}
