package runstore

import (
	"context"
	"sync"

	"github.com/pipewise/maestro/pkg/workflow"
)

// MemoryStore keeps finished workflow runs in process memory
type MemoryStore struct {
	runs    map[string]*workflow.RunResult
	runsMux sync.RWMutex
}

// NewMemoryStore creates an empty in-memory run store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*workflow.RunResult),
	}
}

// SaveRun stores a finished run, replacing any previous record for the
// same run ID
func (s *MemoryStore) SaveRun(_ context.Context, run *workflow.RunResult) error {
	s.runsMux.Lock()
	defer s.runsMux.Unlock()
	s.runs[run.RunID] = run
	return nil
}

// GetRun retrieves a run by its ID
func (s *MemoryStore) GetRun(_ context.Context, runID string) (*workflow.RunResult, bool) {
	s.runsMux.RLock()
	defer s.runsMux.RUnlock()
	run, exists := s.runs[runID]
	return run, exists
}

// ListRuns returns all stored runs
func (s *MemoryStore) ListRuns(_ context.Context) []*workflow.RunResult {
	s.runsMux.RLock()
	defer s.runsMux.RUnlock()

	runs := make([]*workflow.RunResult, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	return runs
}

// DeleteRun removes a run by its ID
func (s *MemoryStore) DeleteRun(_ context.Context, runID string) bool {
	s.runsMux.Lock()
	defer s.runsMux.Unlock()

	_, exists := s.runs[runID]
	if exists {
		delete(s.runs, runID)
	}
	return exists
}
