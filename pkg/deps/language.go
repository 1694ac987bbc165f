package deps

import (
	"strings"

	"github.com/olamyy/wmt/pkg/source"
)

// Language ties an ecosystem to the manifest formats that declare its
// dependencies.
type Language struct {
	Name      string
	Ecosystem source.Ecosystem
	Manifests []ManifestParser
}

// FindLanguage returns the language whose name or ecosystem is name, or nil.
func FindLanguage(name string, langs []*Language) *Language {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, l := range langs {
		if l.Name == name || string(l.Ecosystem) == name {
			return l
		}
	}
	return nil
}
