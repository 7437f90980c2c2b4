package subscription

import (
	"context"
	"sync"
	"time"
)

// memoryStore is an in-memory PlanRecordStore for tests and local development.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]PlanRecord // keyed by UserID
}

// NewMemoryStore returns an empty in-memory PlanRecordStore.
func NewMemoryStore() PlanRecordStore {
	return &memoryStore{
		records: make(map[string]PlanRecord),
	}
}

func (s *memoryStore) Get(_ context.Context, userID string) (*PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, ErrPlanRecordNotFound
	}
	// Copy prevents callers from mutating stored state.
	return &record, nil
}

func (s *memoryStore) Upsert(_ context.Context, record *PlanRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := *record
	if existing, ok := s.records[record.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.records[record.UserID] = stored
	return nil
}

func (s *memoryStore) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

func (s *memoryStore) DeleteByCustomerID(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, record := range s.records {
		if record.CustomerID == customerID {
			delete(s.records, userID)
		}
	}
	return nil
}
