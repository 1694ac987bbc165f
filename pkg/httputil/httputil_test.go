package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBreakersTripAfterThreshold(t *testing.T) {
	b := NewBreakers(time.Hour, time.Hour)
	boom := errors.New("boom")

	calls := 0
	for range TripThreshold {
		err := b.Call("https://crates.io/api/v1/crates/serde", func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	}

	err := b.Call("https://crates.io/api/v1/crates/tokio", func() error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("err = %v, want ErrUpstreamDown", err)
	}
	if calls != TripThreshold {
		t.Errorf("fn ran %d times; an open breaker must not call it", calls)
	}
	if got := b.States()["crates.io"]; got != "open" {
		t.Errorf("state = %q, want open", got)
	}

	// Other hosts are unaffected.
	if err := b.Call("https://registry.npmjs.org/react", func() error { return nil }); err != nil {
		t.Errorf("npm call: %v", err)
	}
	if got := b.States()["registry.npmjs.org"]; got != "closed" {
		t.Errorf("npm state = %q, want closed", got)
	}
}

func TestBreakersSuccessResetsCount(t *testing.T) {
	b := NewBreakers(time.Hour, time.Hour)
	boom := errors.New("boom")
	for range 3 {
		for range TripThreshold - 1 {
			_ = b.Call("https://pypi.org/pypi/x/json", func() error { return boom })
		}
		if err := b.Call("https://pypi.org/pypi/x/json", func() error { return nil }); err != nil {
			t.Fatalf("breaker opened before %d consecutive failures: %v", TripThreshold, err)
		}
	}
}

func TestRateLimited(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		want   bool
	}{
		{"429", http.StatusTooManyRequests, nil, true},
		{"github quota", http.StatusForbidden, http.Header{"X-Ratelimit-Remaining": {"0"}}, true},
		{"github secondary", http.StatusForbidden, http.Header{"Retry-After": {"60"}}, true},
		{"plain 403", http.StatusForbidden, nil, false},
		{"500", http.StatusInternalServerError, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: tt.header}
			if resp.Header == nil {
				resp.Header = http.Header{}
			}
			if got := RateLimited(resp); got != tt.want {
				t.Errorf("RateLimited = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
	}{
		{"none", http.Header{}, 0},
		{"seconds", http.Header{"Retry-After": {"30"}}, 30 * time.Second},
		{"http date", http.Header{"Retry-After": {now.Add(time.Minute).Format(http.TimeFormat)}}, time.Minute},
		{"past date", http.Header{"Retry-After": {now.Add(-time.Minute).Format(http.TimeFormat)}}, 0},
		{"reset", http.Header{"X-Ratelimit-Reset": {"1735733100"}}, 5 * time.Minute},
		{"retry-after wins", http.Header{"Retry-After": {"1"}, "X-Ratelimit-Reset": {"1735733100"}}, time.Second},
		{"garbage", http.Header{"Retry-After": {"soon"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryAfter(tt.header, now); got != tt.want {
				t.Errorf("RetryAfter = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(0)
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s", c.Timeout)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get through the caching dialer: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
