// Package resumes stores the user's resumes and enforces the per-plan
// creation limit. Resume content lives elsewhere; this module owns the
// records whose count feeds the permission gate.
package resumes

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Resume is a single stored resume shell.
type Resume struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	// ErrResumeNotFound is returned when no resume exists for the id,
	// or it belongs to a different user.
	ErrResumeNotFound = errors.New("resume not found")

	// ErrResumeLimitReached is returned when the user's plan does not
	// allow creating another resume.
	ErrResumeLimitReached = errors.New("resume limit reached for the current plan")

	// ErrMissingTitle is returned when a resume is created without a title.
	ErrMissingTitle = errors.New("resume title is required")

	// ErrUnauthorized is returned when no authenticated user is present.
	ErrUnauthorized = errors.New("unauthorized")
)
