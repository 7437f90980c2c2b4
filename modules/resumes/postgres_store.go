package resumes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the Postgres store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	db DB
}

// NewPostgresStore returns a Store backed by the given pool.
func NewPostgresStore(db DB) Store {
	if db == nil {
		panic("resumes: db is required")
	}
	return &postgresStore{db: db}
}

func (s *postgresStore) Create(ctx context.Context, resume *Resume) error {
	const query = `
		INSERT INTO resumes (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, resume.ID, resume.UserID, resume.Title).
		Scan(&resume.CreatedAt, &resume.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

func (s *postgresStore) ListByUser(ctx context.Context, userID string) ([]Resume, error) {
	const query = `
		SELECT id, user_id, title, created_at, updated_at
		FROM resumes
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var out []Resume
	for rows.Next() {
		var resume Resume
		if err := rows.Scan(&resume.ID, &resume.UserID, &resume.Title, &resume.CreatedAt, &resume.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		out = append(out, resume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resumes: %w", err)
	}
	return out, nil
}

func (s *postgresStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResumeNotFound
	}
	return nil
}

func (s *postgresStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM resumes WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count resumes: %w", err)
	}
	return count, nil
}
