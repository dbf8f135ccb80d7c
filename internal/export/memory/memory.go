package memory

import (
	"context"
	"fmt"
	"sync"

	"wishgift/internal/storage"
)

// Store is an in-memory RecordWriter used in tests and local development
// when no spreadsheet is configured.
type Store struct {
	mu      sync.Mutex
	records []storage.ExportRecord
}

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, rec storage.ExportRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return fmt.Sprintf("mem:%d", len(s.records)), nil
}

// Records returns a copy of everything appended so far.
func (s *Store) Records() []storage.ExportRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.ExportRecord(nil), s.records...)
}
