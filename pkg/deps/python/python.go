package python

import (
	"regexp"
	"strings"

	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// Language describes Python packages published to PyPI.
var Language = &deps.Language{
	Name:      "python",
	Ecosystem: source.PyPI,
	Manifests: []deps.ManifestParser{&Requirements{}, &PyProject{}},
}

var (
	depNameRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)`)
	eggRE     = regexp.MustCompile(`[#&]egg=([a-zA-Z0-9][-a-zA-Z0-9._]*)`)
)

// parseRequirement reads one PEP 508 requirement such as
// "requests[socks]>=2.28; python_version < '3.8'" or
// "pkg @ git+https://github.com/owner/pkg".
func parseRequirement(line string, scope deps.Scope) (deps.Dependency, bool) {
	line = strings.TrimSpace(line)
	if i := strings.Index(line, " #"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	m := depNameRE.FindStringSubmatch(line)
	if m == nil {
		return deps.Dependency{}, false
	}
	d := deps.Dependency{Name: m[1], Scope: scope}

	rest := strings.TrimSpace(line[len(m[1]):])
	if marker := strings.Index(rest, ";"); marker >= 0 {
		rest = strings.TrimSpace(rest[:marker])
	}
	if strings.HasPrefix(rest, "[") {
		if end := strings.Index(rest, "]"); end >= 0 {
			rest = strings.TrimSpace(rest[end+1:])
		}
	}
	if url, ok := strings.CutPrefix(rest, "@"); ok {
		d.RepoURL = strings.TrimSpace(url)
		return d, true
	}
	d.Constraint = strings.Trim(rest, "() ")
	return d, true
}
