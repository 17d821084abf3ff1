package report

import (
	"context"
	"fmt"
	"sync"

	"census/internal/citizens/models"
	"census/pkg/platform/sentinel"
)

// MemoryStore keeps computed gift reports in process memory with the same
// insert-once contract as the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[int64]models.GiftReport
}

// NewMemory constructs an empty in-memory report store.
func NewMemory() *MemoryStore {
	return &MemoryStore{reports: make(map[int64]models.GiftReport)}
}

func (s *MemoryStore) TryGet(_ context.Context, importID int64) (models.GiftReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.reports[importID]
	if !ok {
		return nil, nil
	}
	return cloneReport(stored), nil
}

func (s *MemoryStore) Put(_ context.Context, importID int64, report models.GiftReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[importID]; ok {
		return fmt.Errorf("report for import %d: %w", importID, sentinel.ErrConflict)
	}
	s.reports[importID] = cloneReport(report)
	return nil
}

// cloneReport guards the write-once invariant: callers never share slices
// with the stored copy.
func cloneReport(r models.GiftReport) models.GiftReport {
	out := make(models.GiftReport, len(r))
	for month, entries := range r {
		out[month] = append([]models.GiftCount(nil), entries...)
	}
	return out
}
