package rust

import (
	"maps"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// CargoToml parses Cargo.toml files. It reads [dependencies],
// [dev-dependencies] and [build-dependencies], their target-specific
// variants, and [workspace.dependencies]. Path dependencies are local and
// skipped; renamed dependencies are reported under their crates.io name.
type CargoToml struct{}

func (c *CargoToml) Type() string              { return "Cargo.toml" }
func (c *CargoToml) Supports(name string) bool { return strings.EqualFold(name, "cargo.toml") }

func (c *CargoToml) Parse(path string) (*deps.ManifestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deps.ParseError(path, err)
	}

	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, deps.ParseError(path, err)
	}

	return &deps.ManifestResult{
		Type:         c.Type(),
		Ecosystem:    source.Cargo,
		RootPackage:  cargo.Package.Name,
		Dependencies: deps.Normalize(source.Cargo, extractCargoDeps(cargo)),
	}, nil
}

func extractCargoDeps(cargo cargoFile) []deps.Dependency {
	workspace := cargo.Workspace.Dependencies
	var result []deps.Dependency
	add := func(table map[string]any, scope deps.Scope) {
		for key, spec := range table {
			if d, ok := cargoDep(key, spec, scope, workspace); ok {
				result = append(result, d)
			}
		}
	}

	add(cargo.Dependencies, deps.ScopeNormal)
	add(cargo.DevDependencies, deps.ScopeDev)
	add(cargo.BuildDependencies, deps.ScopeBuild)
	for _, target := range cargo.Target {
		add(target.Dependencies, deps.ScopeNormal)
		add(target.DevDependencies, deps.ScopeDev)
		add(target.BuildDependencies, deps.ScopeBuild)
	}
	// A virtual workspace manifest declares its shared dependencies only here.
	if cargo.Package.Name == "" {
		add(workspace, deps.ScopeNormal)
	}
	return result
}

// cargoDep interprets one dependency entry, which is either a version
// string or a table.
func cargoDep(key string, spec any, scope deps.Scope, workspace map[string]any) (deps.Dependency, bool) {
	d := deps.Dependency{Name: key, Scope: scope}
	switch v := spec.(type) {
	case string:
		d.Constraint = v
		return d, true
	case map[string]any:
		if inherited, _ := v["workspace"].(bool); inherited {
			merged := map[string]any{}
			if ws, ok := workspace[key]; ok {
				if s, ok := ws.(string); ok {
					merged["version"] = s
				} else if t, ok := ws.(map[string]any); ok {
					maps.Copy(merged, t)
				}
			}
			v = merged
		}
		if _, local := v["path"]; local {
			if _, published := v["version"]; !published {
				return deps.Dependency{}, false
			}
		}
		if pkg, ok := v["package"].(string); ok && pkg != "" {
			d.Name = pkg
		}
		d.Constraint, _ = v["version"].(string)
		if git, ok := v["git"].(string); ok {
			d.RepoURL = git
		}
		return d, true
	}
	return deps.Dependency{}, false
}

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
	} `toml:"package"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	Target            map[string]struct {
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
	} `toml:"target"`
	Workspace struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}
