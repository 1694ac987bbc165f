// Package criteria holds the well-maintained checklist: a fixed, ordered
// registry of criteria, each declaring the bundle kinds it needs and a pure
// evaluator over those bundles.
//
// The registry is built once at package initialisation and never mutated.
// Evaluators never see missing bundles: the check runner records Unknown
// without calling them when a required fetch failed. They may still return
// Unknown when the data they got is ambiguous or incomplete.
package criteria

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/olamyy/wmt/pkg/source"
)

// Status is the outcome of one criterion for one package.
type Status int

const (
	Unknown Status = iota
	Pass
	Fail
)

var statusNames = [...]string{Unknown: "unknown", Pass: "pass", Fail: "fail"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// MarshalText encodes the status as its lower-case name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Verdict is a status plus the reason it was reached.
type Verdict struct {
	Status Status `json:"status" yaml:"status" bson:"status"`
	Reason string `json:"reason" yaml:"reason" bson:"reason"`
}

// Passed returns a Pass verdict.
func Passed(format string, args ...any) Verdict {
	return Verdict{Status: Pass, Reason: fmt.Sprintf(format, args...)}
}

// Failed returns a Fail verdict.
func Failed(format string, args ...any) Verdict {
	return Verdict{Status: Fail, Reason: fmt.Sprintf(format, args...)}
}

// Undetermined returns an Unknown verdict.
func Undetermined(format string, args ...any) Verdict {
	return Verdict{Status: Unknown, Reason: fmt.Sprintf(format, args...)}
}

// Input carries the bundles an evaluator may read. Only the kinds the
// criterion declared are guaranteed to be non-nil.
type Input struct {
	Registry   *source.RegistryBundle
	Repository *source.RepositoryBundle
}

// Has reports whether the bundle of the given kind is present.
func (in Input) Has(kind source.Kind) bool {
	switch kind {
	case source.KindRegistry:
		return in.Registry != nil
	case source.KindRepository:
		return in.Repository != nil
	}
	return false
}

// Evaluator computes a verdict. It must be pure: identical input yields an
// identical verdict.
type Evaluator func(Input) Verdict

// Spec describes one criterion.
type Spec struct {
	// ID is the stable short code used on the command line and in output.
	ID string
	// Number is the 1-based position in the checklist.
	Number      int
	Title       string
	Explanation string
	// Needs lists the bundle kinds the evaluator reads, in fetch order.
	Needs    []source.Kind
	Evaluate Evaluator
}

// Registry is an ordered, read-only set of criteria.
type Registry struct {
	specs []Spec
	byID  map[string]int
}

// NewRegistry builds a registry from specs in checklist order, numbering
// them from 1. It rejects duplicate or empty ids, specs without an
// evaluator, and specs that need nothing.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{specs: make([]Spec, 0, len(specs)), byID: make(map[string]int, len(specs))}
	for i, s := range specs {
		switch {
		case s.ID == "":
			return nil, fmt.Errorf("criterion %d: empty id", i+1)
		case s.Evaluate == nil:
			return nil, fmt.Errorf("criterion %q: no evaluator", s.ID)
		case len(s.Needs) == 0:
			return nil, fmt.Errorf("criterion %q: needs no bundles", s.ID)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("criterion %q: duplicate id", s.ID)
		}
		s.Number = i + 1
		s.Needs = slices.Clone(s.Needs)
		r.byID[s.ID] = i
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(specs ...Spec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every criterion in checklist order.
func (r *Registry) All() []Spec { return slices.Clone(r.specs) }

// Len returns the number of criteria.
func (r *Registry) Len() int { return len(r.specs) }

// Lookup finds a criterion by id.
func (r *Registry) Lookup(id string) (Spec, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// ByNumber finds a criterion by its 1-based checklist number.
func (r *Registry) ByNumber(n int) (Spec, bool) {
	if n < 1 || n > len(r.specs) {
		return Spec{}, false
	}
	return r.specs[n-1], true
}

// Resolve accepts either an id or a checklist number, the two forms users
// select a single criterion with.
func (r *Registry) Resolve(sel string) (Spec, bool) {
	sel = strings.TrimSpace(strings.ToLower(sel))
	if n, err := strconv.Atoi(sel); err == nil {
		return r.ByNumber(n)
	}
	return r.Lookup(sel)
}

// Required returns the union of bundle kinds needed by specs, in the order
// they are first declared.
func Required(specs []Spec) []source.Kind {
	var kinds []source.Kind
	for _, s := range specs {
		for _, k := range s.Needs {
			if !slices.Contains(kinds, k) {
				kinds = append(kinds, k)
			}
		}
	}
	return kinds
}

var defaultRegistry = MustRegistry(checklist()...)

// Default returns the built-in well-maintained checklist.
func Default() *Registry { return defaultRegistry }
