package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/resumekit/pkg/logger"
)

// Reconciler consumes verified billing events and brings the plan record
// store to a consistent state. Handlers are idempotent: all writes are
// keyed by user id, so redelivered events converge to the same record.
// No ordering is assumed between events; two concurrent events for the
// same user race and the store's writer serialization decides the winner.
type Reconciler struct {
	store    PlanRecordStore
	gateway  BillingGateway
	identity IdentityStore
	prices   PriceIDs
	log      *slog.Logger
	now      func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcilerClock overrides the time source, used in tests.
func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReconciler creates a Reconciler. Panics if a required dependency is
// nil to fail fast during initialization.
func NewReconciler(store PlanRecordStore, gateway BillingGateway, identity IdentityStore, prices PriceIDs, log *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	if store == nil {
		panic("subscription: PlanRecordStore is required")
	}
	if gateway == nil {
		panic("subscription: BillingGateway is required")
	}
	if identity == nil {
		panic("subscription: IdentityStore is required")
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Reconciler{
		store:    store,
		gateway:  gateway,
		identity: identity,
		prices:   prices,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleEvent dispatches a single event to its handler. Unrecognized event
// kinds are explicitly ignored, not errors. A returned error means the
// event failed as a whole with no partial state applied; the provider's
// redelivery policy governs the retry.
func (r *Reconciler) HandleEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, event.Session)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return r.handleSubscriptionUpserted(ctx, event.SubscriptionID)
	case EventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, event.Subscription)
	default:
		r.log.DebugContext(ctx, "unhandled billing event", logger.EventType(event.Type))
		return nil
	}
}

// handleCheckoutCompleted grants one-time access for a completed payment-mode
// checkout whose line item matches the known one-time price. Subscription-mode
// sessions are skipped here; they are handled through the subscription
// created/updated events.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, session *CheckoutSession) error {
	if session == nil || session.UserID == "" {
		return fmt.Errorf("%w: checkout session", ErrMissingUserMetadata)
	}

	// Customer association is useful regardless of session mode.
	r.syncCustomerID(ctx, session.UserID, session.CustomerID)

	if session.Mode != CheckoutModePayment {
		r.log.DebugContext(ctx, "checkout session is not a one-time payment, skipping",
			logger.UserID(session.UserID), slog.String("mode", session.Mode))
		return nil
	}

	priceIDs, err := r.gateway.ListCheckoutPriceIDs(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list checkout line items: %w", err)
	}
	if len(priceIDs) == 0 || priceIDs[0] == "" {
		return ErrMissingPriceID
	}

	priceID := priceIDs[0]
	if priceID != r.prices.OneTime {
		r.log.WarnContext(ctx, "checkout price does not match the one-time plan, ignoring",
			logger.UserID(session.UserID), slog.String("price_id", priceID))
		return nil
	}

	customerID := session.CustomerID
	if customerID == "" {
		// One-time checkouts may complete without a stored customer.
		customerID = "temp_customer_" + session.UserID
	}

	record := &PlanRecord{
		UserID:            session.UserID,
		SubscriptionID:    "one_time_" + session.ID,
		CustomerID:        customerID,
		PriceID:           priceID,
		PeriodEnd:         r.now().Add(OneTimeAccessPeriod),
		CancelAtPeriodEnd: false,
	}
	if err := r.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert one-time plan record: %w", err)
	}

	r.log.InfoContext(ctx, "one-time access granted",
		logger.UserID(session.UserID), slog.Time("period_end", record.PeriodEnd))
	return nil
}

// handleSubscriptionUpserted refetches the subscription by id and either
// upserts the plan record (alive statuses) or deletes all records for the
// subscription's customer (everything else).
func (r *Reconciler) handleSubscriptionUpserted(ctx context.Context, subscriptionID string) error {
	sub, err := r.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}

	if sub.UserID == "" {
		return fmt.Errorf("%w: subscription %s", ErrMissingUserMetadata, sub.ID)
	}

	if !sub.Status.KeepsGrantAlive() {
		if err := r.store.DeleteByCustomerID(ctx, sub.CustomerID); err != nil {
			return fmt.Errorf("failed to delete plan records for customer %s: %w", sub.CustomerID, err)
		}
		r.log.InfoContext(ctx, "subscription not alive, plan records deleted",
			logger.UserID(sub.UserID),
			logger.CustomerID(sub.CustomerID),
			slog.String("status", string(sub.Status)))
		return nil
	}

	record := &PlanRecord{
		UserID:            sub.UserID,
		SubscriptionID:    sub.ID,
		CustomerID:        sub.CustomerID,
		PriceID:           sub.PriceID,
		PeriodEnd:         sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if err := r.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert plan record: %w", err)
	}

	r.syncCustomerID(ctx, sub.UserID, sub.CustomerID)

	r.log.InfoContext(ctx, "plan record reconciled",
		logger.UserID(sub.UserID),
		logger.SubscriptionID(sub.ID),
		slog.String("status", string(sub.Status)),
		slog.Time("period_end", record.PeriodEnd))
	return nil
}

// handleSubscriptionDeleted removes the user's plan record. Missing user
// metadata is logged and ignored: the record may already be gone and the
// deletion event carries no other way to find it.
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, sub *SubscriptionInfo) error {
	if sub == nil || sub.UserID == "" {
		r.log.ErrorContext(ctx, "subscription deleted event missing user metadata, skipping")
		return nil
	}

	if err := r.store.DeleteByUserID(ctx, sub.UserID); err != nil {
		return fmt.Errorf("failed to delete plan record for user %s: %w", sub.UserID, err)
	}

	r.log.InfoContext(ctx, "plan record deleted", logger.UserID(sub.UserID))
	return nil
}

// syncCustomerID associates the provider customer id with the user's
// identity profile. Best-effort: a failure here must never fail the event,
// the plan record upsert is the authoritative outcome.
func (r *Reconciler) syncCustomerID(ctx context.Context, userID, customerID string) {
	if customerID == "" {
		return
	}
	if err := r.identity.SetCustomerID(ctx, userID, customerID); err != nil {
		r.log.ErrorContext(ctx, "failed to sync customer id to identity provider",
			logger.UserID(userID), logger.CustomerID(customerID), logger.Error(err))
	}
}
