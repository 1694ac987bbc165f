package check

import (
	"testing"
	"time"

	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/fetch"
	"github.com/olamyy/wmt/pkg/source"
)

func row(id string, s criteria.Status) CriterionVerdict {
	return CriterionVerdict{ID: id, Verdict: criteria.Verdict{Status: s}}
}

func pkgResult(name string, rows ...CriterionVerdict) PackageResult {
	return PackageResult{Identity: cargo(name), Verdicts: rows}
}

func TestAggregate(t *testing.T) {
	specs := []criteria.Spec{{ID: "a"}, {ID: "b"}}

	tests := []struct {
		name     string
		packages []PackageResult
		want     Outcome
	}{
		{"empty", nil, OutcomePass},
		{"all pass", []PackageResult{
			pkgResult("x", row("a", criteria.Pass), row("b", criteria.Pass)),
		}, OutcomePass},
		{"unknown only", []PackageResult{
			pkgResult("x", row("a", criteria.Pass), row("b", criteria.Unknown)),
		}, OutcomePartialUnknown},
		{"fail beats unknown", []PackageResult{
			pkgResult("x", row("a", criteria.Unknown), row("b", criteria.Unknown)),
			pkgResult("y", row("a", criteria.Pass), row("b", criteria.Fail)),
		}, OutcomeFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Aggregate(specs, tt.packages)
			if s.Outcome != tt.want {
				t.Errorf("Outcome = %s, want %s", s.Outcome, tt.want)
			}
			if s.Packages != len(tt.packages) {
				t.Errorf("Packages = %d", s.Packages)
			}
			if s.Pass+s.Fail+s.Unknown != len(tt.packages)*len(specs) {
				t.Errorf("counts %d+%d+%d do not cover every verdict", s.Pass, s.Fail, s.Unknown)
			}
		})
	}
}

func TestAggregate_PerCriterion(t *testing.T) {
	specs := []criteria.Spec{{ID: "b"}, {ID: "a"}}
	s := Aggregate(specs, []PackageResult{
		pkgResult("x", row("b", criteria.Fail), row("a", criteria.Pass)),
		pkgResult("y", row("b", criteria.Unknown), row("a", criteria.Pass)),
	})

	if s.Criteria[0].ID != "b" || s.Criteria[1].ID != "a" {
		t.Fatalf("criteria order = %s, %s", s.Criteria[0].ID, s.Criteria[1].ID)
	}
	if got := s.Criteria[0]; got.Fail != 1 || got.Unknown != 1 || got.Pass != 0 {
		t.Errorf("b = %+v", got)
	}
	if got := s.Criteria[1]; got.Pass != 2 {
		t.Errorf("a = %+v", got)
	}
}

func TestPackageResult(t *testing.T) {
	p := pkgResult("x", row("a", criteria.Pass), row("b", criteria.Unknown))

	if p.Outcome() != OutcomePartialUnknown {
		t.Errorf("Outcome = %s", p.Outcome())
	}
	if p.Count(criteria.Pass) != 1 {
		t.Errorf("Count(Pass) = %d", p.Count(criteria.Pass))
	}
	if _, ok := p.Verdict("missing"); ok {
		t.Error("Verdict(missing) should not be found")
	}
	if p.Identity.Ecosystem != source.Cargo {
		t.Errorf("Identity = %v", p.Identity)
	}
}

func TestMode(t *testing.T) {
	if AllCriteria().Single() {
		t.Error("AllCriteria is single")
	}
	m := SingleCriterion("license")
	if !m.Single() || m.String() != "criterion license" {
		t.Errorf("SingleCriterion = %+v %q", m, m.String())
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	bad := []func(*Config){
		func(c *Config) { c.MaxRetries = -1 },
		func(c *Config) { c.FetchTimeout = -1 },
		func(c *Config) { c.BackoffMax = c.BackoffBase / 2 },
		func(c *Config) { c.Sources["vcs"] = c.Sources[source.KindRegistry] },
		func(c *Config) {
			l := c.Sources[source.KindRegistry]
			l.Window = 0
			c.Sources[source.KindRegistry] = l
		},
		func(c *Config) {
			c.Sources[source.KindRepository] = fetch.Limits{Calls: 1000, Window: 500 * time.Nanosecond}
		},
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
