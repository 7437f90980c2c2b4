package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the Postgres store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// postgresStore is a PlanRecordStore backed by PostgreSQL.
// Upsert atomicity comes from INSERT ... ON CONFLICT on the user_id
// primary key; no application-level locking is introduced.
type postgresStore struct {
	db DB
}

// NewPostgresStore returns a PlanRecordStore backed by the given pool.
func NewPostgresStore(db DB) PlanRecordStore {
	if db == nil {
		panic("subscription: db is required")
	}
	return &postgresStore{db: db}
}

func (s *postgresStore) Get(ctx context.Context, userID string) (*PlanRecord, error) {
	const query = `
		SELECT user_id, subscription_id, customer_id, price_id,
		       period_end, cancel_at_period_end, created_at, updated_at
		FROM user_subscriptions
		WHERE user_id = $1`

	var record PlanRecord
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&record.SubscriptionID,
		&record.CustomerID,
		&record.PriceID,
		&record.PeriodEnd,
		&record.CancelAtPeriodEnd,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanRecordNotFound
		}
		return nil, fmt.Errorf("failed to get plan record: %w", err)
	}
	return &record, nil
}

func (s *postgresStore) Upsert(ctx context.Context, record *PlanRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	const query = `
		INSERT INTO user_subscriptions (
			user_id, subscription_id, customer_id, price_id,
			period_end, cancel_at_period_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			subscription_id = EXCLUDED.subscription_id,
			customer_id = EXCLUDED.customer_id,
			price_id = EXCLUDED.price_id,
			period_end = EXCLUDED.period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = now()`

	_, err := s.db.Exec(ctx, query,
		record.UserID,
		record.SubscriptionID,
		record.CustomerID,
		record.PriceID,
		record.PeriodEnd,
		record.CancelAtPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert plan record: %w", err)
	}
	return nil
}

func (s *postgresStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM user_subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete plan record: %w", err)
	}
	return nil
}

func (s *postgresStore) DeleteByCustomerID(ctx context.Context, customerID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM user_subscriptions WHERE customer_id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("failed to delete plan records by customer: %w", err)
	}
	return nil
}
