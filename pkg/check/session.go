package check

import (
	"github.com/charmbracelet/log"

	"github.com/olamyy/wmt/pkg/fetch"
)

// Session is the shared mutable state of one run: the bundle cache and the
// per-source scheduler. A Runner creates a fresh Session per Run unless one
// is injected with [WithSession], which lets tests (or a caller checking
// several batches as one logical run) share fetches across calls.
type Session struct {
	Cache     *fetch.Cache
	Scheduler *fetch.Scheduler
}

// NewSession creates an empty session for cfg.
func NewSession(cfg Config, logger *log.Logger) *Session {
	cfg = cfg.WithDefaults()
	return &Session{
		Cache:     fetch.NewCache(),
		Scheduler: fetch.NewScheduler(cfg.Sources, cfg.policy(), logger),
	}
}
