package history

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. It backs tests and the
// "memory" history driver, where losing history on restart is acceptable.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*Record
	logs  map[string][]byte
	order []string // insertion order, oldest first
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*Record),
		logs: make(map[string][]byte),
	}
}

// SaveRun stores a record and its captured log.
func (s *MemoryStore) SaveRun(ctx context.Context, rec *Record, log []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	cp := *rec
	s.runs[rec.ID] = &cp
	s.logs[rec.ID] = append([]byte(nil), log...)
	return nil
}

// GetRun retrieves a record by run id.
func (s *MemoryStore) GetRun(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListRuns returns up to limit records, newest first.
func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.runs[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// GetRunLog returns the captured log for a run.
func (s *MemoryStore) GetRunLog(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), log...), nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close releases the stored data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]*Record)
	s.logs = make(map[string][]byte)
	s.order = nil
	return nil
}
