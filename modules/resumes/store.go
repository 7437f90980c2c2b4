package resumes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists resume records.
type Store interface {
	// Create persists a new resume.
	Create(ctx context.Context, resume *Resume) error

	// ListByUser returns the user's resumes, newest first.
	ListByUser(ctx context.Context, userID string) ([]Resume, error)

	// Delete removes the user's resume. Returns ErrResumeNotFound when the
	// resume does not exist or belongs to another user.
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// CountByUser returns the number of resumes the user currently has.
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// memoryStore is an in-memory Store for tests and local development.
type memoryStore struct {
	mu      sync.RWMutex
	resumes map[uuid.UUID]Resume
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		resumes: make(map[uuid.UUID]Resume),
	}
}

func (s *memoryStore) Create(_ context.Context, resume *Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := *resume
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.resumes[resume.ID] = stored

	resume.CreatedAt = stored.CreatedAt
	resume.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *memoryStore) ListByUser(_ context.Context, userID string) ([]Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Resume
	for _, resume := range s.resumes {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) Delete(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resume, ok := s.resumes[id]
	if !ok || resume.UserID != userID {
		return ErrResumeNotFound
	}
	delete(s.resumes, id)
	return nil
}

func (s *memoryStore) CountByUser(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, resume := range s.resumes {
		if resume.UserID == userID {
			count++
		}
	}
	return count, nil
}
