package python

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/source"
)

// Requirements parses pip requirements files. Files named like
// requirements-dev.txt or requirements-test.txt hold dev dependencies.
// Options, includes and editable installs are skipped; VCS URLs are kept
// when they name their package with #egg=.
type Requirements struct{}

func (r *Requirements) Type() string { return "requirements.txt" }

func (r *Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

func (r *Requirements) Parse(path string) (*deps.ManifestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deps.ParseError(path, err)
	}
	defer f.Close()

	scope := deps.ScopeNormal
	base := strings.ToLower(filepath.Base(path))
	if strings.Contains(base, "dev") || strings.Contains(base, "test") {
		scope = deps.ScopeDev
	}

	var result []deps.Dependency
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") && !strings.Contains(line, " @ ") {
			if m := eggRE.FindStringSubmatch(line); m != nil {
				url := strings.TrimPrefix(strings.SplitN(line, "#", 2)[0], "git+")
				result = append(result, deps.Dependency{Name: m[1], Scope: scope, RepoURL: url})
			}
			continue
		}
		if d, ok := parseRequirement(line, scope); ok {
			result = append(result, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, deps.ParseError(path, err)
	}

	return &deps.ManifestResult{
		Type:         r.Type(),
		Ecosystem:    source.PyPI,
		Dependencies: deps.Normalize(source.PyPI, result),
	}, nil
}
