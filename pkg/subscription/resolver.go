package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/resumekit/pkg/logger"
)

// Resolver maps a user's plan record and the current time to a
// SubscriptionLevel. It is total over its input domain: absent records,
// expired grants, store failures and unknown price ids all resolve to
// LevelFree rather than an error.
type Resolver struct {
	store  PlanRecordStore
	prices PriceIDs
	log    *slog.Logger
	now    func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverClock overrides the time source, used in tests.
func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver. Panics if store is nil to fail fast
// during initialization.
func NewResolver(store PlanRecordStore, prices PriceIDs, log *slog.Logger, opts ...ResolverOption) *Resolver {
	if store == nil {
		panic("subscription: PlanRecordStore is required")
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Resolver{
		store:  store,
		prices: prices,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the user's current subscription level.
// A level previously memoized for this user via WithLevel short-circuits
// the store lookup; time and record do not change mid-request.
func (r *Resolver) Resolve(ctx context.Context, userID string) SubscriptionLevel {
	if level, ok := LevelFromContext(ctx, userID); ok {
		return level
	}

	record, err := r.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrPlanRecordNotFound) {
			// Degrade to free rather than failing the caller's page.
			r.log.ErrorContext(ctx, "plan record lookup failed, treating user as free",
				logger.UserID(userID), logger.Error(err))
		}
		return LevelFree
	}

	// Expired grants are never resurrected automatically; a new billing
	// event must arrive to re-grant access.
	if record.IsExpired(r.now()) {
		return LevelFree
	}

	return r.prices.LevelFor(record.PriceID)
}
