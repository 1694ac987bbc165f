package deps

import (
	"testing"

	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
)

func TestNormalize(t *testing.T) {
	in := []Dependency{
		{Name: "Serde_JSON", Constraint: "1", Scope: ScopeDev},
		{Name: "tokio", Constraint: "1", Scope: ScopeNormal},
		{Name: "serde-json", Constraint: "1.0.100", Scope: ScopeNormal},
		{Name: "cc", Scope: ScopeBuild},
	}

	got := Normalize(source.Cargo, in)
	if len(got) != 3 {
		t.Fatalf("Normalize = %+v, want 3 entries", got)
	}
	if got[0].Name != "cc" || got[2].Name != "tokio" {
		t.Errorf("order = %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}
	if got[1].Scope != ScopeNormal || got[1].Constraint != "1.0.100" {
		t.Errorf("duplicate should keep the normal entry, got %+v", got[1])
	}
}

func TestIdentities(t *testing.T) {
	r := &ManifestResult{
		Ecosystem: source.NPM,
		Dependencies: []Dependency{
			{Name: "express", Constraint: "^4.18.0", Scope: ScopeNormal},
			{Name: "jest", Constraint: "^29", Scope: ScopeDev},
			{Name: "fork", Scope: ScopePeer, RepoURL: "github:me/fork"},
		},
	}

	ids := r.Identities(false)
	if len(ids) != 2 {
		t.Fatalf("Identities(false) = %+v", ids)
	}
	if ids[0] != (source.Identity{Ecosystem: source.NPM, Name: "express", Version: "^4.18.0"}) {
		t.Errorf("ids[0] = %+v", ids[0])
	}
	if ids[1].RepoURL != "github:me/fork" {
		t.Errorf("ids[1] = %+v", ids[1])
	}
	if len(r.Identities(true)) != 3 {
		t.Error("Identities(true) should include dev dependencies")
	}
}

type stubParser struct{ name string }

func (s stubParser) Parse(string) (*ManifestResult, error) { return &ManifestResult{Type: s.name}, nil }
func (s stubParser) Supports(name string) bool             { return name == s.name }
func (s stubParser) Type() string                          { return s.name }

func TestDetectManifest(t *testing.T) {
	parsers := []ManifestParser{stubParser{"a.toml"}, stubParser{"b.json"}}

	p, err := DetectManifest("/tmp/x/b.json", parsers...)
	if err != nil || p.Type() != "b.json" {
		t.Errorf("DetectManifest = %v, %v", p, err)
	}
	if _, err := DetectManifest("c.lock", parsers...); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("unsupported manifest: err = %v", err)
	}
	if _, err := DetectManifest(".hidden", parsers...); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("hidden manifest: err = %v", err)
	}
}

func TestFindLanguage(t *testing.T) {
	langs := []*Language{{Name: "rust", Ecosystem: source.Cargo}, {Name: "python", Ecosystem: source.PyPI}}

	if l := FindLanguage(" Python ", langs); l == nil || l.Ecosystem != source.PyPI {
		t.Errorf("FindLanguage(Python) = %v", l)
	}
	if l := FindLanguage("cargo", langs); l == nil || l.Name != "rust" {
		t.Errorf("FindLanguage(cargo) = %v", l)
	}
	if FindLanguage("go", langs) != nil {
		t.Error("FindLanguage(go) should be nil")
	}
}
