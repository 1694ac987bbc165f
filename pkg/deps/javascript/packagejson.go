package javascript

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// PackageJSON parses package.json files. It extracts dependencies,
// devDependencies, peerDependencies and optionalDependencies. Entries that
// point at local paths or tarballs are skipped; GitHub shorthands and git
// URLs keep their repository.
type PackageJSON struct{}

func (p *PackageJSON) Type() string              { return "package.json" }
func (p *PackageJSON) Supports(name string) bool { return strings.EqualFold(name, "package.json") }

func (p *PackageJSON) Parse(path string) (*deps.ManifestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deps.ParseError(path, err)
	}

	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, deps.ParseError(path, err)
	}

	return &deps.ManifestResult{
		Type:         p.Type(),
		Ecosystem:    source.NPM,
		RootPackage:  pkg.Name,
		Dependencies: deps.Normalize(source.NPM, extractPackageDeps(pkg)),
	}, nil
}

func extractPackageDeps(pkg packageFile) []deps.Dependency {
	var result []deps.Dependency
	add := func(table map[string]string, scope deps.Scope) {
		for name, spec := range table {
			if d, ok := npmDep(name, spec, scope); ok {
				result = append(result, d)
			}
		}
	}
	add(pkg.Dependencies, deps.ScopeNormal)
	add(pkg.OptionalDependencies, deps.ScopeNormal)
	add(pkg.PeerDependencies, deps.ScopePeer)
	add(pkg.DevDependencies, deps.ScopeDev)
	return result
}

func npmDep(name, spec string, scope deps.Scope) (deps.Dependency, bool) {
	d := deps.Dependency{Name: name, Scope: scope}
	switch {
	case strings.HasPrefix(spec, "file:"), strings.HasPrefix(spec, "link:"),
		strings.HasPrefix(spec, "workspace:"), strings.HasPrefix(spec, "portal:"),
		strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		return deps.Dependency{}, false
	case strings.HasPrefix(spec, "npm:"):
		// Aliases: "npm:real-name@^1.0".
		alias := strings.TrimPrefix(spec, "npm:")
		if i := strings.LastIndex(alias, "@"); i > 0 {
			d.Name, d.Constraint = alias[:i], alias[i+1:]
		} else {
			d.Name = alias
		}
	case strings.HasPrefix(spec, "github:"), strings.HasPrefix(spec, "git"),
		strings.Contains(spec, "://"):
		d.RepoURL = spec
	case isShorthandRepo(spec):
		d.RepoURL = "github:" + spec
	default:
		d.Constraint = spec
	}
	return d, true
}

// isShorthandRepo matches the "owner/repo" GitHub shorthand npm accepts.
func isShorthandRepo(spec string) bool {
	owner, repo, ok := strings.Cut(strings.SplitN(spec, "#", 2)[0], "/")
	return ok && owner != "" && repo != "" && !strings.ContainsAny(owner, " <>=^~*") && !strings.Contains(repo, "/")
}

type packageFile struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}
