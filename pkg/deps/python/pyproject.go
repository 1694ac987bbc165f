package python

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// PyProject parses pyproject.toml files, reading both PEP 621
// [project] tables and Poetry's [tool.poetry] tables. Optional
// dependencies, dependency groups and Poetry groups count as dev
// dependencies.
type PyProject struct{}

func (p *PyProject) Type() string              { return "pyproject.toml" }
func (p *PyProject) Supports(name string) bool { return strings.EqualFold(name, "pyproject.toml") }

func (p *PyProject) Parse(path string) (*deps.ManifestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deps.ParseError(path, err)
	}
	var py pyprojectFile
	if err := toml.Unmarshal(data, &py); err != nil {
		return nil, deps.ParseError(path, err)
	}

	var result []deps.Dependency
	addReqs := func(reqs []any, scope deps.Scope) {
		for _, r := range reqs {
			// Dependency groups may include other groups as tables.
			if s, ok := r.(string); ok {
				if d, ok := parseRequirement(s, scope); ok {
					result = append(result, d)
				}
			}
		}
	}
	addReqs(py.Project.Dependencies, deps.ScopeNormal)
	for _, reqs := range py.Project.OptionalDependencies {
		addReqs(reqs, deps.ScopeDev)
	}
	for _, reqs := range py.DependencyGroups {
		addReqs(reqs, deps.ScopeDev)
	}

	poetry := py.Tool.Poetry
	result = append(result, poetryDeps(poetry.Dependencies, deps.ScopeNormal)...)
	result = append(result, poetryDeps(poetry.DevDependencies, deps.ScopeDev)...)
	for _, g := range poetry.Group {
		result = append(result, poetryDeps(g.Dependencies, deps.ScopeDev)...)
	}

	root := py.Project.Name
	if root == "" {
		root = poetry.Name
	}
	return &deps.ManifestResult{
		Type:         p.Type(),
		Ecosystem:    source.PyPI,
		RootPackage:  root,
		Dependencies: deps.Normalize(source.PyPI, result),
	}, nil
}

// poetryDeps reads a Poetry dependency table. Values are a version string
// or a table with version, git or path keys. The python entry is the
// interpreter, not a package.
func poetryDeps(table map[string]any, scope deps.Scope) []deps.Dependency {
	var result []deps.Dependency
	for name, spec := range table {
		if strings.EqualFold(name, "python") {
			continue
		}
		d := deps.Dependency{Name: name, Scope: scope}
		switch v := spec.(type) {
		case string:
			d.Constraint = v
		case map[string]any:
			if _, local := v["path"]; local {
				continue
			}
			d.Constraint, _ = v["version"].(string)
			d.RepoURL, _ = v["git"].(string)
		case []any:
			// Multiple constraints by marker; the first is representative.
			if len(v) > 0 {
				if t, ok := v[0].(map[string]any); ok {
					d.Constraint, _ = t["version"].(string)
				}
			}
		}
		result = append(result, d)
	}
	return result
}

type pyprojectFile struct {
	Project struct {
		Name                 string           `toml:"name"`
		Dependencies         []any            `toml:"dependencies"`
		OptionalDependencies map[string][]any `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
	Tool             struct {
		Poetry struct {
			Name            string         `toml:"name"`
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}
