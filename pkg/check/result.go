package check

import (
	"fmt"
	"strings"
	"time"

	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/source"
)

// Outcome is the run-level verdict the exit code is derived from.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	// OutcomeFail means at least one package failed at least one criterion.
	OutcomeFail Outcome = "fail"
	// OutcomePartialUnknown means nothing failed but some criteria could
	// not be assessed.
	OutcomePartialUnknown Outcome = "partial-unknown"
)

// ReasonCancelled is recorded for every criterion of a package the run
// did not finish before it was cancelled.
const ReasonCancelled = "run cancelled"

// Mode selects which criteria a run evaluates.
type Mode struct {
	// Criterion is empty for all criteria, or the id (or checklist
	// number) of the only criterion to evaluate.
	Criterion string `json:"criterion,omitempty" yaml:"criterion,omitempty" bson:"criterion,omitempty"`
}

// AllCriteria evaluates the whole checklist.
func AllCriteria() Mode { return Mode{} }

// SingleCriterion restricts fetching, evaluation and aggregation to one
// criterion.
func SingleCriterion(sel string) Mode { return Mode{Criterion: sel} }

// Single reports whether m selects one criterion.
func (m Mode) Single() bool { return m.Criterion != "" }

func (m Mode) String() string {
	if m.Single() {
		return "criterion " + m.Criterion
	}
	return "all criteria"
}

// CriterionVerdict is one row of a PackageResult.
type CriterionVerdict struct {
	ID               string `json:"id" yaml:"id" bson:"id"`
	Number           int    `json:"number" yaml:"number" bson:"number"`
	Title            string `json:"title" yaml:"title" bson:"title"`
	criteria.Verdict `yaml:",inline" bson:",inline"`
}

// PackageResult holds exactly one verdict per in-scope criterion, in
// checklist order.
type PackageResult struct {
	Identity source.Identity    `json:"package" yaml:"package" bson:"package"`
	Verdicts []CriterionVerdict `json:"verdicts" yaml:"verdicts" bson:"verdicts"`
}

// Verdict returns the verdict recorded for criterion id.
func (p PackageResult) Verdict(id string) (criteria.Verdict, bool) {
	for _, v := range p.Verdicts {
		if v.ID == id {
			return v.Verdict, true
		}
	}
	return criteria.Verdict{}, false
}

// Count returns the number of verdicts with status s.
func (p PackageResult) Count(s criteria.Status) int {
	n := 0
	for _, v := range p.Verdicts {
		if v.Status == s {
			n++
		}
	}
	return n
}

// Outcome is the package-level equivalent of the run outcome.
func (p PackageResult) Outcome() Outcome {
	switch {
	case p.Count(criteria.Fail) > 0:
		return OutcomeFail
	case p.Count(criteria.Unknown) > 0:
		return OutcomePartialUnknown
	}
	return OutcomePass
}

// CriterionSummary counts verdicts for one criterion across packages.
type CriterionSummary struct {
	ID      string `json:"id" yaml:"id" bson:"id"`
	Pass    int    `json:"pass" yaml:"pass" bson:"pass"`
	Fail    int    `json:"fail" yaml:"fail" bson:"fail"`
	Unknown int    `json:"unknown" yaml:"unknown" bson:"unknown"`
}

// Summary aggregates a run.
type Summary struct {
	Packages int                `json:"packages" yaml:"packages" bson:"packages"`
	Criteria []CriterionSummary `json:"criteria" yaml:"criteria" bson:"criteria"`
	Pass     int                `json:"pass" yaml:"pass" bson:"pass"`
	Fail     int                `json:"fail" yaml:"fail" bson:"fail"`
	Unknown  int                `json:"unknown" yaml:"unknown" bson:"unknown"`
	Outcome  Outcome            `json:"outcome" yaml:"outcome" bson:"outcome"`
}

// RunResult is the single value a run produces.
type RunResult struct {
	ID         string          `json:"id" yaml:"id" bson:"_id"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at" bson:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at" bson:"finished_at"`
	Mode       Mode            `json:"mode" yaml:"mode" bson:"mode"`
	Cancelled  bool            `json:"cancelled,omitempty" yaml:"cancelled,omitempty" bson:"cancelled,omitempty"`
	Packages   []PackageResult `json:"packages" yaml:"packages" bson:"packages"`
	Summary    Summary         `json:"summary" yaml:"summary" bson:"summary"`
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Aggregate summarizes packages over the in-scope criteria, preserving the
// order of both. The outcome is Fail iff any package has a Fail verdict,
// otherwise PartialUnknown iff any verdict is Unknown, otherwise Pass.
func Aggregate(specs []criteria.Spec, packages []PackageResult) Summary {
	s := Summary{
		Packages: len(packages),
		Criteria: make([]CriterionSummary, len(specs)),
	}
	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		s.Criteria[i].ID = spec.ID
		index[spec.ID] = i
	}

	for _, p := range packages {
		for _, v := range p.Verdicts {
			i, ok := index[v.ID]
			if !ok {
				continue
			}
			switch v.Status {
			case criteria.Pass:
				s.Criteria[i].Pass++
				s.Pass++
			case criteria.Fail:
				s.Criteria[i].Fail++
				s.Fail++
			default:
				s.Criteria[i].Unknown++
				s.Unknown++
			}
		}
	}

	switch {
	case s.Fail > 0:
		s.Outcome = OutcomeFail
	case s.Unknown > 0:
		s.Outcome = OutcomePartialUnknown
	default:
		s.Outcome = OutcomePass
	}
	return s
}

// String renders a one-line summary.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d package(s): %d pass, %d fail, %d unknown", s.Packages, s.Pass, s.Fail, s.Unknown)
	fmt.Fprintf(&b, " (%s)", s.Outcome)
	return b.String()
}
