package deps

import (
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
)

// ParseIdentity converts one command line argument into a package identity.
// Accepted forms:
//
//	serde                       name in defaultEco
//	serde@1.0                   name with version constraint
//	npm:@types/node@20          ecosystem prefix (aliases accepted)
//	pkg:pypi/requests@2.31.0    package URL
//	https://github.com/o/r      repository, checked under its name in defaultEco
//	github:o/r                  same
func ParseIdentity(arg string, defaultEco source.Ecosystem) (source.Identity, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return source.Identity{}, errors.New(errors.ErrCodeInvalidInput, "empty package argument")
	}

	if strings.HasPrefix(arg, "pkg:") {
		return parsePURL(arg, defaultEco)
	}
	if ref, ok := repoArg(arg); ok {
		return source.Identity{Ecosystem: defaultEco, Name: ref.Name, RepoURL: ref.URL()}, nil
	}

	eco := defaultEco
	if prefix, rest, found := strings.Cut(arg, ":"); found {
		e, err := source.ParseEcosystem(prefix)
		if err != nil {
			return source.Identity{}, errors.Wrap(errors.ErrCodeInvalidEcosystem, err, "parse %q", arg)
		}
		eco, arg = e, rest
	}

	name, version := splitVersion(arg)
	return newIdentity(eco, name, version, "")
}

func repoArg(arg string) (source.RepoRef, bool) {
	if !strings.HasPrefix(arg, "github:") && !strings.Contains(arg, "github.com") {
		return source.RepoRef{}, false
	}
	return source.ParseRepoURL(arg)
}

// splitVersion separates "name@version", leaving the scope marker of
// "@scope/name" alone.
func splitVersion(s string) (name, version string) {
	i := strings.LastIndex(s, "@")
	if i <= 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

func parsePURL(arg string, defaultEco source.Ecosystem) (source.Identity, error) {
	p, err := packageurl.FromString(arg)
	if err != nil {
		return source.Identity{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse package URL %q", arg)
	}

	switch p.Type {
	case packageurl.TypeCargo:
		return newIdentity(source.Cargo, p.Name, p.Version, "")
	case packageurl.TypePyPi:
		return newIdentity(source.PyPI, p.Name, p.Version, "")
	case packageurl.TypeNPM:
		name := p.Name
		if p.Namespace != "" {
			name = p.Namespace + "/" + p.Name
		}
		return newIdentity(source.NPM, name, p.Version, "")
	case packageurl.TypeGithub:
		ref, ok := source.ParseRepoURL("github.com/" + p.Namespace + "/" + p.Name)
		if !ok {
			return source.Identity{}, errors.New(errors.ErrCodeInvalidInput, "invalid GitHub package URL %q", arg)
		}
		return source.Identity{Ecosystem: defaultEco, Name: ref.Name, Version: p.Version, RepoURL: ref.URL()}, nil
	}
	return source.Identity{}, errors.New(errors.ErrCodeInvalidEcosystem, "unsupported package URL type %q", p.Type)
}

func newIdentity(eco source.Ecosystem, name, version, repo string) (source.Identity, error) {
	if err := errors.ValidateEcosystemPackageName(string(eco), name); err != nil {
		return source.Identity{}, err
	}
	return source.Identity{Ecosystem: eco, Name: name, Version: version, RepoURL: repo}, nil
}
