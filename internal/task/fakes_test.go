package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stashsuite/stashweb/internal/store"
)

// fakeRecordStore is an in-memory store.TaskRecordStore for tests.
type fakeRecordStore struct {
	mu         sync.Mutex
	records    map[uuid.UUID]*store.TaskRecord
	failCreate bool
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[uuid.UUID]*store.TaskRecord)}
}

var _ store.TaskRecordStore = (*fakeRecordStore)(nil)

func (s *fakeRecordStore) Create(ctx context.Context, rec *store.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("record store down")
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *fakeRecordStore) Get(ctx context.Context, id uuid.UUID) (*store.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrTaskRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *fakeRecordStore) ListExpired(ctx context.Context, now time.Time) ([]*store.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.TaskRecord
	for _, rec := range s.records {
		if !rec.ExpiresAt.After(now) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeRecordStore) WithTx(tx *sql.Tx) store.TaskRecordStore {
	return s
}

func (s *fakeRecordStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
