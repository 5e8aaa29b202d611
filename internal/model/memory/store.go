package memory

import (
	"context"
	"imagestudio/internal/entity"
	"sync"
)

// Store is an in-process history store.
type Store struct {
	mu      sync.Mutex
	limit   int
	records []entity.HistoryRecord
}

func NewStore(limit int, seed ...entity.HistoryRecord) *Store {
	records := make([]entity.HistoryRecord, len(seed))
	copy(records, seed)
	return &Store{limit: limit, records: records}
}

func (s *Store) Load(ctx context.Context) ([]entity.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.HistoryRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) Append(ctx context.Context, record entity.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = entity.PrependHistory(s.records, record, s.limit)
	return nil
}
