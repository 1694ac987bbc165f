package report

import (
	"context"
	"sync"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/errors"
)

// MemoryStore keeps runs in process memory. It is the default store of
// `wmt serve` when no MongoDB URI is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*check.RunResult
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*check.RunResult)}
}

func (s *MemoryStore) Save(_ context.Context, res *check.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[res.ID] = res
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*check.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.runs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	return res, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
