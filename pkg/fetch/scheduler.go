package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/olamyy/wmt/pkg/observability"
	"github.com/olamyy/wmt/pkg/source"
)

var errEmptyBundle = errors.New("adapter returned no bundle and no error")

// Limits bounds the calls made to one source.
type Limits struct {
	// MaxInFlight caps concurrently running calls. Zero means unbounded.
	MaxInFlight int `toml:"max_in_flight" json:"max_in_flight"`
	// Calls per Window caps the call rate: no Window-long interval holds
	// more than Calls call starts. Starts are paced evenly, one every
	// Window/Calls. Zero Calls means unlimited.
	Calls  int           `toml:"calls" json:"calls"`
	Window time.Duration `toml:"window" json:"window"`
}

// Interval is the minimum spacing between call starts, or zero when the
// rate is unlimited. A window shorter than Calls nanoseconds also yields
// zero.
func (l Limits) Interval() time.Duration {
	if l.Calls <= 0 || l.Window <= 0 {
		return 0
	}
	return l.Window / time.Duration(l.Calls)
}

// Policy controls per-call deadlines and retries.
type Policy struct {
	// Timeout is the deadline of a single call. Zero means none beyond
	// the caller's context.
	Timeout time.Duration
	// MaxRetries bounds the retries after the first attempt.
	MaxRetries int
	// BackoffBase and BackoffMax shape the exponential backoff between
	// retries. A jitter of ±RandomizationFactor is applied.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// RandomizationFactor is the jitter applied to retry delays.
const RandomizationFactor = 0.1

// Scheduler admits calls to each source under its [Limits], suspends a
// source after it signals a rate limit, and retries retryable failures.
//
// Calls waiting for a slot are admitted in submission order. The scheduler
// is safe for concurrent use and is meant to be shared by every package of
// a run.
type Scheduler struct {
	policy Policy
	logger *log.Logger

	mu     sync.Mutex
	limits map[source.Kind]Limits
	lanes  map[source.Kind]*lane
}

// NewScheduler creates a scheduler. Sources missing from limits run
// unbounded. A nil logger falls back to log.Default().
func NewScheduler(limits map[source.Kind]Limits, policy Policy, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	if policy.BackoffBase <= 0 {
		policy.BackoffBase = 500 * time.Millisecond
	}
	if policy.BackoffMax < policy.BackoffBase {
		policy.BackoffMax = policy.BackoffBase
	}
	l := make(map[source.Kind]Limits, len(limits))
	for k, v := range limits {
		l[k] = v
	}
	return &Scheduler{
		policy: policy,
		logger: logger,
		limits: l,
		lanes:  make(map[source.Kind]*lane),
	}
}

// Call is one unit of work submitted to a source.
type Call func(ctx context.Context) (source.Bundle, error)

// Do runs call against source kind, waiting for admission, and retries
// Transient, Timeout and RateLimited failures up to Policy.MaxRetries
// times. NotFound and MalformedResponse are returned after one attempt.
// The returned error is always a *source.FetchError.
func (s *Scheduler) Do(ctx context.Context, kind source.Kind, key string, call Call) (source.Bundle, error) {
	ln := s.lane(kind)
	bo := s.newBackOff()

	for attempt := 0; ; attempt++ {
		b, err := ln.run(ctx, key, s.policy.Timeout, call)
		if err == nil {
			return b, nil
		}
		fe := source.Classify(kind, err)

		if fe.Kind == source.RateLimited {
			until, _ := ln.suspendedUntil()
			observability.Fetch().OnSuspend(ctx, string(kind), until)
			s.logger.Warn("source rate limited", "source", kind, "until", until.Format(time.TimeOnly))
		}
		if !fe.Kind.Retryable() || attempt >= s.policy.MaxRetries || ctx.Err() != nil {
			return nil, fe
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return nil, fe
		}
		observability.Fetch().OnRetry(ctx, string(kind), key, attempt+1, wait, fe)
		s.logger.Debug("retrying fetch", "source", kind, "key", key, "attempt", attempt+1, "wait", wait, "err", fe.Kind)

		if err := sleep(ctx, wait); err != nil {
			return nil, fe
		}
	}
}

// Suspended reports whether kind is currently paused and until when.
func (s *Scheduler) Suspended(kind source.Kind) (time.Time, bool) {
	return s.lane(kind).suspendedUntil()
}

func (s *Scheduler) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.policy.BackoffBase
	bo.MaxInterval = s.policy.BackoffMax
	bo.RandomizationFactor = RandomizationFactor
	bo.Multiplier = 2
	// The retry count bounds the loop, not elapsed time.
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func (s *Scheduler) lane(kind source.Kind) *lane {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ln, ok := s.lanes[kind]; ok {
		return ln
	}
	ln := newLane(kind, s.limits[kind])
	s.lanes[kind] = ln
	return ln
}

// lane holds the admission state of one source. Callers queue on gate,
// which admits them one at a time in arrival order; only the head of the
// queue waits for a slot, the end of a suspension and the rate limiter.
type lane struct {
	kind    source.Kind
	gate    *semaphore.Weighted
	slots   *semaphore.Weighted
	limiter *rate.Limiter

	mu       sync.Mutex
	resumeAt time.Time
}

func newLane(kind source.Kind, l Limits) *lane {
	ln := &lane{kind: kind, gate: semaphore.NewWeighted(1)}
	if l.MaxInFlight > 0 {
		ln.slots = semaphore.NewWeighted(int64(l.MaxInFlight))
	}
	if l.Calls > 0 {
		window := l.Window
		if window <= 0 {
			window = time.Second
		}
		// Burst 1 keeps every Window at or below Calls starts.
		ln.limiter = rate.NewLimiter(rate.Limit(float64(l.Calls)/window.Seconds()), 1)
	}
	return ln
}

// admit blocks until the call may start and returns the release of its
// in-flight slot.
func (ln *lane) admit(ctx context.Context) (func(), error) {
	if err := ln.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer ln.gate.Release(1)

	release := func() {}
	if ln.slots != nil {
		if err := ln.slots.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		release = func() { ln.slots.Release(1) }
	}
	for {
		if err := ln.waitResume(ctx); err != nil {
			release()
			return nil, err
		}
		if ln.limiter != nil {
			if err := ln.limiter.Wait(ctx); err != nil {
				release()
				return nil, err
			}
		}
		// The source may have been suspended while we waited for a token.
		if _, suspended := ln.suspendedUntil(); !suspended {
			return release, nil
		}
	}
}

func (ln *lane) run(ctx context.Context, key string, timeout time.Duration, call Call) (source.Bundle, error) {
	release, err := ln.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	observability.Fetch().OnFetchStart(ctx, string(ln.kind), key)
	b, err := call(callCtx)
	if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
		err = source.NewFetchError(source.Timeout, ln.kind, err)
	}
	if err == nil && b == nil {
		err = source.NewFetchError(source.MalformedResponse, ln.kind, errEmptyBundle)
	}
	// Suspend before the slot is released so no queued call slips out.
	if err != nil {
		if fe := source.Classify(ln.kind, err); fe.Kind == source.RateLimited {
			ln.suspend(fe.RetryAfter)
		}
	}
	observability.Fetch().OnFetchComplete(ctx, string(ln.kind), key, time.Since(start), err)
	return b, err
}

// suspend pauses the lane for d (at least one second when the source gave
// no hint) and returns the resume time. Suspensions only ever extend.
func (ln *lane) suspend(d time.Duration) time.Time {
	if d <= 0 {
		d = time.Second
	}
	until := time.Now().Add(d)
	ln.mu.Lock()
	defer ln.mu.Unlock()
	if until.After(ln.resumeAt) {
		ln.resumeAt = until
	}
	return ln.resumeAt
}

func (ln *lane) suspendedUntil() (time.Time, bool) {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	return ln.resumeAt, time.Now().Before(ln.resumeAt)
}

func (ln *lane) waitResume(ctx context.Context) error {
	for {
		until, suspended := ln.suspendedUntil()
		if !suspended {
			return nil
		}
		if err := sleep(ctx, time.Until(until)); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
