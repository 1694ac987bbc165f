package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerProgress(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, 3)

	if got := s.Message(); got != "Checking packages (0/3)..." {
		t.Errorf("initial message = %q", got)
	}
	s.OnPackageState(context.Background(), "cargo:serde", "fetching")
	s.OnPackageState(context.Background(), "cargo:serde", "done")
	if got := s.Message(); got != "Checking packages (1/3)..." {
		t.Errorf("message = %q", got)
	}

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()
	if !strings.Contains(out.String(), "(1/3)") {
		t.Errorf("spinner never drew: %q", out.String())
	}
	if s.Cancelled() {
		t.Error("a stopped spinner is not cancelled")
	}
}

func TestSpinnerSinglePackage(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, 1)
	if got := s.Message(); got != "Checking 1 package..." {
		t.Errorf("message = %q", got)
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, &syncBuffer{}, 2)
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, 2)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, 2)
	s.Stop()
}
