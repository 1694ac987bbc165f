package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olamyy/wmt/pkg/source"
)

func fastPolicy(retries int) Policy {
	return Policy{MaxRetries: retries, BackoffBase: time.Millisecond, BackoffMax: 2 * time.Millisecond}
}

func failing(kind source.ErrorKind, calls *atomic.Int32) Call {
	return func(ctx context.Context) (source.Bundle, error) {
		calls.Add(1)
		return nil, &source.FetchError{Kind: kind, Err: errors.New("upstream")}
	}
}

func TestScheduler_RetryBound(t *testing.T) {
	tests := []struct {
		kind      source.ErrorKind
		wantCalls int32
	}{
		{source.Transient, 4},
		{source.Timeout, 4},
		{source.NotFound, 1},
		{source.MalformedResponse, 1},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			s := NewScheduler(nil, fastPolicy(3), nil)
			var calls atomic.Int32

			_, err := s.Do(context.Background(), source.KindRegistry, "cargo:serde", failing(tt.kind, &calls))
			var fe *source.FetchError
			if !errors.As(err, &fe) || fe.Kind != tt.kind {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if n := calls.Load(); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestScheduler_RetryThenSuccess(t *testing.T) {
	s := NewScheduler(nil, fastPolicy(3), nil)
	var calls atomic.Int32

	b, err := s.Do(context.Background(), source.KindRepository, "github.com/a/b", func(ctx context.Context) (source.Bundle, error) {
		if calls.Add(1) < 3 {
			return nil, &source.FetchError{Kind: source.Transient}
		}
		return &source.RepositoryBundle{}, nil
	})
	if err != nil || b == nil {
		t.Fatalf("Do() = %v, %v", b, err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestScheduler_RateLimitSuspendsSource(t *testing.T) {
	s := NewScheduler(nil, fastPolicy(2), nil)
	var calls atomic.Int32
	const hint = 60 * time.Millisecond

	start := time.Now()
	_, err := s.Do(context.Background(), source.KindRepository, "github.com/a/b", func(ctx context.Context) (source.Bundle, error) {
		if calls.Add(1) == 1 {
			return nil, &source.FetchError{Kind: source.RateLimited, RetryAfter: hint}
		}
		return &source.RepositoryBundle{}, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < hint {
		t.Errorf("retry ran after %v, want >= %v", elapsed, hint)
	}

	// Other keys of the same source wait out the suspension too.
	s.lane(source.KindRepository).suspend(hint)
	if _, ok := s.Suspended(source.KindRepository); !ok {
		t.Fatal("source should be suspended")
	}
	if _, ok := s.Suspended(source.KindRegistry); ok {
		t.Error("suspension must not leak to other sources")
	}
	start = time.Now()
	if _, err := s.Do(context.Background(), source.KindRepository, "github.com/c/d", func(context.Context) (source.Bundle, error) {
		return &source.RepositoryBundle{}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < hint/2 {
		t.Errorf("queued call ran after %v, expected it to wait for the suspension", elapsed)
	}
}

func TestScheduler_MaxInFlight(t *testing.T) {
	limits := map[source.Kind]Limits{source.KindRegistry: {MaxInFlight: 2}}
	s := NewScheduler(limits, fastPolicy(0), nil)

	var inFlight, peak atomic.Int32
	call := func(ctx context.Context) (source.Bundle, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return &source.RegistryBundle{}, nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Do(context.Background(), source.KindRegistry, "k", call); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", p)
	}
}

// startLog records when calls reach the adapter and in which order.
type startLog struct {
	mu     sync.Mutex
	times  []time.Time
	labels []int
}

func (l *startLog) record(label int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.times = append(l.times, time.Now())
	l.labels = append(l.labels, label)
}

func TestScheduler_RateWindow(t *testing.T) {
	const (
		calls  = 4
		window = 200 * time.Millisecond
		slack  = 5 * time.Millisecond
	)
	limits := map[source.Kind]Limits{source.KindRegistry: {Calls: calls, Window: window}}
	s := NewScheduler(limits, fastPolicy(0), nil)

	var log startLog
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Do(context.Background(), source.KindRegistry, "k", func(context.Context) (source.Bundle, error) {
				log.record(i)
				return &source.RegistryBundle{}, nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if len(log.times) != 10 {
		t.Fatalf("started %d calls, want 10", len(log.times))
	}
	// Starts are recorded in order, so any window holding more than
	// calls starts contains starts i and i+calls.
	for i := 0; i+calls < len(log.times); i++ {
		if gap := log.times[i+calls].Sub(log.times[i]); gap < window-slack {
			t.Errorf("starts %d and %d are %v apart: %d calls in less than %v", i, i+calls, gap, calls+1, window)
		}
	}
}

func TestScheduler_SuspendedWhileWaitingForToken(t *testing.T) {
	const hint = 300 * time.Millisecond
	limits := map[source.Kind]Limits{source.KindRepository: {MaxInFlight: 4, Calls: 1, Window: 150 * time.Millisecond}}
	s := NewScheduler(limits, fastPolicy(0), nil)

	var (
		mu          sync.Mutex
		suspendedAt time.Time
		log         startLog
	)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Do(context.Background(), source.KindRepository, "github.com/a/slow", func(context.Context) (source.Bundle, error) {
			time.Sleep(60 * time.Millisecond)
			mu.Lock()
			suspendedAt = time.Now()
			mu.Unlock()
			return nil, &source.FetchError{Kind: source.RateLimited, RetryAfter: hint}
		})
		var fe *source.FetchError
		if !errors.As(err, &fe) || fe.Kind != source.RateLimited {
			t.Errorf("err = %v, want RateLimited", err)
		}
	}()

	// These queue behind the limiter before the source answers 429.
	time.Sleep(10 * time.Millisecond)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Do(context.Background(), source.KindRepository, "github.com/a/b", func(context.Context) (source.Bundle, error) {
				log.record(i)
				return &source.RepositoryBundle{}, nil
			}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	resume := suspendedAt.Add(hint)
	for i, at := range log.times {
		if at.Before(resume.Add(-5 * time.Millisecond)) {
			t.Errorf("call %d started %v before the suspension ended", i, resume.Sub(at))
		}
	}
}

func TestScheduler_FIFO(t *testing.T) {
	tests := []struct {
		name  string
		first error
	}{
		{"waiting for a slot", nil},
		{"after a suspension", &source.FetchError{Kind: source.RateLimited, RetryAfter: 50 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := map[source.Kind]Limits{source.KindRegistry: {MaxInFlight: 1}}
			s := NewScheduler(limits, fastPolicy(0), nil)

			unblock := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Do(context.Background(), source.KindRegistry, "first", func(context.Context) (source.Bundle, error) {
					<-unblock
					if tt.first != nil {
						return nil, tt.first
					}
					return &source.RegistryBundle{}, nil
				})
			}()
			time.Sleep(10 * time.Millisecond)

			var log startLog
			for i := range 6 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Do(context.Background(), source.KindRegistry, "k", func(context.Context) (source.Bundle, error) {
						log.record(i)
						return &source.RegistryBundle{}, nil
					})
					if err != nil {
						t.Error(err)
					}
				}()
				time.Sleep(5 * time.Millisecond)
			}
			close(unblock)
			wg.Wait()

			for i, label := range log.labels {
				if label != i {
					t.Fatalf("start order = %v, want submission order", log.labels)
				}
			}
		})
	}
}

func TestScheduler_CallTimeout(t *testing.T) {
	s := NewScheduler(nil, Policy{Timeout: 10 * time.Millisecond, BackoffBase: time.Millisecond}, nil)

	_, err := s.Do(context.Background(), source.KindRepository, "github.com/slow/repo", func(ctx context.Context) (source.Bundle, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	var fe *source.FetchError
	if !errors.As(err, &fe) || fe.Kind != source.Timeout {
		t.Fatalf("err = %v, want Timeout", err)
	}
	if fe.Reason() != "Timeout fetching repository metadata" {
		t.Errorf("Reason() = %q", fe.Reason())
	}
}

func TestScheduler_CancelStopsRetries(t *testing.T) {
	s := NewScheduler(nil, Policy{MaxRetries: 100, BackoffBase: 20 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	_, err := s.Do(ctx, source.KindRegistry, "k", failing(source.Transient, &calls))
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n > 5 {
		t.Errorf("calls = %d, retries should stop on cancellation", n)
	}
}
