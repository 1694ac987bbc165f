package httputil

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrUpstreamDown is returned while a host's breaker is open.
var ErrUpstreamDown = errors.New("upstream unavailable")

// TripThreshold is the number of consecutive failures that opens a breaker.
const TripThreshold = 5

// Breakers holds one circuit breaker per host. The zero value is not
// usable; call [NewBreakers].
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
	initial  time.Duration
	max      time.Duration
}

// NewBreakers creates an empty breaker set. An open breaker lets a probe
// through after initial, doubling up to max while the host keeps failing.
func NewBreakers(initial, max time.Duration) *Breakers {
	if initial <= 0 {
		initial = 30 * time.Second
	}
	if max < initial {
		max = initial
	}
	return &Breakers{
		breakers: make(map[string]*circuit.Breaker),
		initial:  initial,
		max:      max,
	}
}

func (b *Breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	cb, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return cb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[host]; ok {
		return cb
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.initial
	bo.MaxInterval = b.max
	bo.Multiplier = 2.0
	bo.Reset()

	cb = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    bo,
		ShouldTrip: circuit.ConsecutiveTripFunc(TripThreshold),
	})
	b.breakers[host] = cb
	return cb
}

// Call runs fn under the breaker of rawURL's host. fn reports a failure
// that should count against the host by returning a non-nil error; other
// outcomes (404, decode errors) must be smuggled out through a closure so
// they do not trip the breaker.
func (b *Breakers) Call(rawURL string, fn func() error) error {
	host := hostOf(rawURL)
	err := b.get(host).Call(fn, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return fmt.Errorf("%w: %s", ErrUpstreamDown, host)
	}
	return err
}

// States reports "open" or "closed" for every host seen so far.
func (b *Breakers) States() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	states := make(map[string]string, len(b.breakers))
	for host, cb := range b.breakers {
		if cb.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
