package resumes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/resumekit/pkg/logger"
	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

// LevelSource resolves the user's current subscription level.
// *subscription.Service satisfies it.
type LevelSource interface {
	Level(ctx context.Context, userID string) subscription.SubscriptionLevel
}

// Service owns resume lifecycle and enforces the per-plan creation limit.
type Service struct {
	store   Store
	counter *Counter
	levels  LevelSource
	log     *slog.Logger
}

// NewService creates a Service. Panics if a required dependency is nil.
func NewService(store Store, counter *Counter, levels LevelSource, log *slog.Logger) *Service {
	if store == nil {
		panic("resumes: Store is required")
	}
	if counter == nil {
		panic("resumes: Counter is required")
	}
	if levels == nil {
		panic("resumes: LevelSource is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, counter: counter, levels: levels, log: log}
}

// Create adds a resume for the user after checking the plan limit.
// The count check and the insert are not atomic; a user racing themselves
// can briefly exceed the limit, which the product tolerates.
func (s *Service) Create(ctx context.Context, userID, title string) (*Resume, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	level := s.levels.Level(ctx, userID)
	count, err := s.counter.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count resumes: %w", err)
	}
	if !subscription.CanCreateResume(level, count) {
		return nil, fmt.Errorf("%w: level %s allows %d", ErrResumeLimitReached, level, subscription.MaxResumesFor(level))
	}

	resume := &Resume{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
	}
	if err := s.store.Create(ctx, resume); err != nil {
		return nil, err
	}
	s.counter.Invalidate(ctx, userID)

	s.log.InfoContext(ctx, "resume created",
		logger.UserID(userID), slog.String("resume_id", resume.ID.String()))
	return resume, nil
}

// List returns the user's resumes, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Resume, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.store.ListByUser(ctx, userID)
}

// Delete removes the user's resume and invalidates the cached count.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.counter.Invalidate(ctx, userID)
	return nil
}

// Quota describes what the user's plan currently allows.
type Quota struct {
	Level                subscription.SubscriptionLevel `json:"level"`
	Count                int64                          `json:"count"`
	MaxResumes           int64                          `json:"maxResumes"` // -1 means unlimited
	CanCreateResume      bool                           `json:"canCreateResume"`
	CanUseAITools        bool                           `json:"canUseAITools"`
	CanUseCustomizations bool                           `json:"canUseCustomizations"`
}

// Quota reports the user's plan capabilities and current usage.
func (s *Service) Quota(ctx context.Context, userID string) (*Quota, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	level := s.levels.Level(ctx, userID)
	count, err := s.counter.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count resumes: %w", err)
	}

	return &Quota{
		Level:                level,
		Count:                count,
		MaxResumes:           subscription.MaxResumesFor(level),
		CanCreateResume:      subscription.CanCreateResume(level, count),
		CanUseAITools:        subscription.CanUseAITools(level),
		CanUseCustomizations: subscription.CanUseCustomizations(level),
	}, nil
}
