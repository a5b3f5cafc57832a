package student

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory, in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]Record
}

// NewMemoryStore creates a store seeded with recs.
func NewMemoryStore(recs ...Record) *MemoryStore {
	s := &MemoryStore{records: make(map[string]Record)}
	for _, r := range recs {
		_, _ = s.Create(context.Background(), r)
	}
	return s
}

// Create inserts rec, assigning an ID when it has none.
func (s *MemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	if rec.StudentID == "" {
		return Record{}, errors.New("student id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if s.records[id].StudentID == rec.StudentID {
			return Record{}, fmt.Errorf("student %s already exists", rec.StudentID)
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, nil
}

// Migrate is a no-op.
func (s *MemoryStore) Migrate(context.Context) error { return nil }

// FetchByID returns the first record carrying studentID.
func (s *MemoryStore) FetchByID(ctx context.Context, studentID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if r := s.records[id]; r.StudentID == studentID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// FetchCollection returns a copy of the matching records.
func (s *MemoryStore) FetchCollection(ctx context.Context, filter Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return filter.apply(out), nil
}

// Update overwrites the writable fields of record id.
func (s *MemoryStore) Update(ctx context.Context, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.Apply(fields)
	s.records[id] = r
	return nil
}
