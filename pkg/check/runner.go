package check

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/fetch"
	"github.com/olamyy/wmt/pkg/observability"
	"github.com/olamyy/wmt/pkg/source"
)

// State is the lifecycle position of one package within a run.
type State string

const (
	StatePending  State = "pending"
	StateFetching State = "fetching"
	StateEvaluate State = "evaluating"
	StateDone     State = "done"
)

// Runner evaluates the checklist for packages. It holds no per-run state:
// every Run gets its own [Session] unless one was injected.
type Runner struct {
	adapter  source.Adapter
	cfg      Config
	registry *criteria.Registry
	session  *Session
	logger   *log.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. A nil logger falls back to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSession makes every Run share s instead of creating a fresh one.
func WithSession(s *Session) Option {
	return func(r *Runner) { r.session = s }
}

// WithRegistry replaces the built-in checklist.
func WithRegistry(reg *criteria.Registry) Option {
	return func(r *Runner) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// NewRunner creates a runner over adapter.
func NewRunner(adapter source.Adapter, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		adapter:  adapter,
		cfg:      cfg.WithDefaults(),
		registry: criteria.Default(),
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scope returns the criteria mode selects, in checklist order.
func (r *Runner) Scope(mode Mode) ([]criteria.Spec, error) {
	if !mode.Single() {
		return r.registry.All(), nil
	}
	spec, ok := r.registry.Resolve(mode.Criterion)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidCriterion, "unknown criterion %q (use an id or a number from 1 to %d)", mode.Criterion, r.registry.Len())
	}
	return []criteria.Spec{spec}, nil
}

// Run checks every package in ids and returns results in input order.
//
// Fetch failures never fail the run; they degrade the affected criteria to
// Unknown. Run returns an error only for an unknown criterion in single
// mode, an invalid configuration, or criteria needing a source the adapter
// does not serve. If ctx is cancelled the partial result is returned with
// unfinished packages marked Unknown ("run cancelled").
func (r *Runner) Run(ctx context.Context, ids []source.Identity, mode Mode) (*RunResult, error) {
	specs, err := r.Scope(mode)
	if err != nil {
		return nil, err
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	needs := criteria.Required(specs)
	for _, k := range needs {
		if r.adapter == nil || !source.Serves(r.adapter, k) {
			return nil, errors.New(errors.ErrCodeContract, "criteria need %s metadata but no adapter serves it", k)
		}
	}

	session := r.session
	if session == nil {
		session = NewSession(r.cfg, r.logger)
	}

	result := &RunResult{
		ID:        uuid.NewString(),
		StartedAt: r.now(),
		Mode:      mode,
		Packages:  make([]PackageResult, len(ids)),
	}
	r.logger.Debug("starting run", "run", result.ID, "packages", len(ids), "mode", mode)

	done := make([]bool, len(ids))
	for _, id := range ids {
		observability.Check().OnPackageState(ctx, id.String(), string(StatePending))
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.PackageConcurrency)
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			pr, ok := r.checkPackage(ctx, session, id, specs, needs)
			if ok {
				result.Packages[i] = pr
				done[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		if !done[i] {
			result.Cancelled = true
			result.Packages[i] = uniform(id, specs, criteria.Undetermined(ReasonCancelled))
		}
	}

	result.FinishedAt = r.now()
	result.Summary = Aggregate(specs, result.Packages)

	stats := session.Cache.Stats()
	r.logger.Info("check complete",
		"packages", len(ids),
		"outcome", result.Summary.Outcome,
		"fetches", stats.Misses,
		"cache_hits", stats.Hits+stats.Shared,
		"duration", result.Duration().Round(time.Millisecond))
	observability.Check().OnRunComplete(ctx, len(ids), string(result.Summary.Outcome), result.Duration())
	return result, nil
}

// checkPackage drives one package through fetching and evaluation. It
// reports ok=false if the run was cancelled before the package finished.
func (r *Runner) checkPackage(ctx context.Context, s *Session, id source.Identity, specs []criteria.Spec, needs []source.Kind) (PackageResult, bool) {
	pkg := id.String()
	state := func(st State) {
		observability.Check().OnPackageState(ctx, pkg, string(st))
		r.logger.Debug("package state", "package", pkg, "state", st)
	}

	state(StateFetching)
	in, failures := r.fetchBundles(ctx, s, id, needs)
	if ctx.Err() != nil {
		return PackageResult{}, false
	}

	state(StateEvaluate)
	pr := PackageResult{Identity: id, Verdicts: make([]CriterionVerdict, 0, len(specs))}
	for _, spec := range specs {
		v := evaluate(spec, in, failures)
		if v.Status == criteria.Unknown {
			r.logger.Debug("criterion unknown", "package", pkg, "criterion", spec.ID, "reason", v.Reason)
		}
		pr.Verdicts = append(pr.Verdicts, CriterionVerdict{ID: spec.ID, Number: spec.Number, Title: spec.Title, Verdict: v})
	}

	state(StateDone)
	return pr, true
}

func evaluate(spec criteria.Spec, in criteria.Input, failures map[source.Kind]*source.FetchError) criteria.Verdict {
	for _, k := range spec.Needs {
		if fe, failed := failures[k]; failed {
			return criteria.Undetermined("%s", fe.Reason())
		}
		if !in.Has(k) {
			return criteria.Undetermined("%s metadata unavailable", k)
		}
	}
	return spec.Evaluate(in)
}

// fetchBundles resolves every kind in needs for one package and waits for
// all of them. The repository is located from the identity's explicit URL
// when present (fetched alongside the registry), otherwise from the
// repository URL the registry publishes (fetched after it).
func (r *Runner) fetchBundles(ctx context.Context, s *Session, id source.Identity, needs []source.Kind) (criteria.Input, map[source.Kind]*source.FetchError) {
	var (
		in       criteria.Input
		mu       sync.Mutex
		failures = make(map[source.Kind]*source.FetchError)
	)
	fail := func(k source.Kind, fe *source.FetchError) {
		mu.Lock()
		failures[k] = fe
		mu.Unlock()
	}

	wantRegistry, wantRepo := false, false
	for _, k := range needs {
		switch k {
		case source.KindRegistry:
			wantRegistry = true
		case source.KindRepository:
			wantRepo = true
		}
	}
	explicit, hasExplicit := source.ParseRepoURL(id.RepoURL)

	var g errgroup.Group
	if wantRegistry && hasExplicit && id.Name == "" {
		fail(source.KindRegistry, unrelatedRegistry(id, explicit))
		wantRegistry = false
	}
	if wantRegistry || (wantRepo && !hasExplicit) {
		g.Go(func() error {
			reg, err := r.fetchRegistry(ctx, s, id)
			if err == nil && hasExplicit && !publishes(reg, explicit) {
				err = unrelatedRegistry(id, explicit)
			}
			if err != nil {
				if wantRegistry {
					fail(source.KindRegistry, err)
				}
				if wantRepo && !hasExplicit {
					fail(source.KindRepository, locateFailure(err))
				}
				return nil
			}
			if wantRegistry {
				in.Registry = reg
			}
			if wantRepo && !hasExplicit {
				ref, ok := source.ParseRepoURL(reg.RepositoryURL)
				if !ok {
					ref, ok = source.ParseRepoURL(reg.Homepage)
				}
				if !ok {
					fail(source.KindRepository, source.NewFetchError(source.NotFound, source.KindRepository,
						fmt.Errorf("%s publishes no supported repository URL", id)))
					return nil
				}
				repo, err := r.fetchRepository(ctx, s, ref)
				if err != nil {
					fail(source.KindRepository, err)
					return nil
				}
				in.Repository = repo
			}
			return nil
		})
	}
	if wantRepo && hasExplicit {
		g.Go(func() error {
			repo, err := r.fetchRepository(ctx, s, explicit)
			if err != nil {
				fail(source.KindRepository, err)
				return nil
			}
			in.Repository = repo
			return nil
		})
	}
	_ = g.Wait()
	return in, failures
}

// ReasonNoRegistryPackage is recorded on registry criteria of a package
// given as a repository when the registry package of that name belongs to
// another repository.
const ReasonNoRegistryPackage = "no registry package for repository argument"

// locateFailure turns a registry failure into the failure of the
// repository lookup that depended on it. The repository itself was never
// contacted, so the reason names the registry failure.
func locateFailure(regErr *source.FetchError) *source.FetchError {
	return &source.FetchError{
		Kind:       regErr.Kind,
		Source:     source.KindRepository,
		RetryAfter: regErr.RetryAfter,
		Note:       "repository unknown: " + regErr.Reason(),
		Err:        fmt.Errorf("repository location unknown: %w", regErr),
	}
}

// publishes reports whether the registry bundle points at ref.
func publishes(reg *source.RegistryBundle, ref source.RepoRef) bool {
	for _, u := range []string{reg.RepositoryURL, reg.Homepage} {
		if got, ok := source.ParseRepoURL(u); ok && got.Key() == ref.Key() {
			return true
		}
	}
	return false
}

func unrelatedRegistry(id source.Identity, ref source.RepoRef) *source.FetchError {
	return &source.FetchError{
		Kind:   source.NotFound,
		Source: source.KindRegistry,
		Note:   ReasonNoRegistryPackage,
		Err:    fmt.Errorf("%s does not publish %s", id, ref),
	}
}

func (r *Runner) fetchRegistry(ctx context.Context, s *Session, id source.Identity) (*source.RegistryBundle, *source.FetchError) {
	key := fetch.Key{Kind: source.KindRegistry, ID: id.Key()}
	b, err := s.Cache.GetOrFetch(ctx, key, func(ctx context.Context) (source.Bundle, error) {
		return s.Scheduler.Do(ctx, key.Kind, key.ID, func(ctx context.Context) (source.Bundle, error) {
			reg, err := r.adapter.FetchRegistry(ctx, id)
			if err != nil || reg == nil {
				return nil, err
			}
			return reg, nil
		})
	})
	if err != nil {
		return nil, source.Classify(source.KindRegistry, err)
	}
	reg, ok := b.(*source.RegistryBundle)
	if !ok {
		return nil, source.NewFetchError(source.MalformedResponse, source.KindRegistry, fmt.Errorf("unexpected bundle %T", b))
	}
	return reg, nil
}

func (r *Runner) fetchRepository(ctx context.Context, s *Session, ref source.RepoRef) (*source.RepositoryBundle, *source.FetchError) {
	key := fetch.Key{Kind: source.KindRepository, ID: ref.Key()}
	b, err := s.Cache.GetOrFetch(ctx, key, func(ctx context.Context) (source.Bundle, error) {
		return s.Scheduler.Do(ctx, key.Kind, key.ID, func(ctx context.Context) (source.Bundle, error) {
			repo, err := r.adapter.FetchRepository(ctx, ref)
			if err != nil || repo == nil {
				return nil, err
			}
			return repo, nil
		})
	})
	if err != nil {
		return nil, source.Classify(source.KindRepository, err)
	}
	repo, ok := b.(*source.RepositoryBundle)
	if !ok {
		return nil, source.NewFetchError(source.MalformedResponse, source.KindRepository, fmt.Errorf("unexpected bundle %T", b))
	}
	return repo, nil
}

func uniform(id source.Identity, specs []criteria.Spec, v criteria.Verdict) PackageResult {
	pr := PackageResult{Identity: id, Verdicts: make([]CriterionVerdict, len(specs))}
	for i, spec := range specs {
		pr.Verdicts[i] = CriterionVerdict{ID: spec.ID, Number: spec.Number, Title: spec.Title, Verdict: v}
	}
	return pr
}
