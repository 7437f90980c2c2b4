package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/resumekit/pkg/logger"
)

// Config holds the environment-driven settings of the subscription service.
type Config struct {
	// BaseURL is the public application URL used to build checkout
	// success/cancel and portal return redirect targets.
	BaseURL string `env:"BASE_URL,required"`
}

// Service exposes the request-time billing operations: starting checkout
// and customer portal sessions, manual plan grants for the debug endpoint,
// and level resolution.
type Service struct {
	store    PlanRecordStore
	gateway  BillingGateway
	identity IdentityStore
	resolver *Resolver
	prices   PriceIDs
	baseURL  string
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source, used in tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service. Panics if a required dependency is nil to
// fail fast during initialization.
func NewService(cfg Config, store PlanRecordStore, gateway BillingGateway, identity IdentityStore, resolver *Resolver, prices PriceIDs, log *slog.Logger, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: PlanRecordStore is required")
	}
	if gateway == nil {
		panic("subscription: BillingGateway is required")
	}
	if identity == nil {
		panic("subscription: IdentityStore is required")
	}
	if resolver == nil {
		panic("subscription: Resolver is required")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:    store,
		gateway:  gateway,
		identity: identity,
		resolver: resolver,
		prices:   prices,
		baseURL:  cfg.BaseURL,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Level returns the user's current subscription level.
func (s *Service) Level(ctx context.Context, userID string) SubscriptionLevel {
	return s.resolver.Resolve(ctx, userID)
}

// StartCheckout creates a billing checkout session for the given price and
// returns the redirect URL. The price's billing type decides the session
// mode; the user id travels as session metadata so the reconciler can map
// the completion event back to the user.
func (s *Service) StartCheckout(ctx context.Context, userID, priceID string) (string, error) {
	if userID == "" {
		return "", ErrUnauthorized
	}

	recurring, err := s.gateway.IsRecurringPrice(ctx, priceID)
	if err != nil {
		return "", fmt.Errorf("failed to look up price %s: %w", priceID, err)
	}

	customerID, err := s.identity.CustomerID(ctx, userID)
	if err != nil {
		// Identity lookup failure only loses customer reuse, not checkout.
		s.log.ErrorContext(ctx, "failed to read customer id from identity provider",
			logger.UserID(userID), logger.Error(err))
		customerID = ""
	}

	var email string
	if customerID == "" {
		if email, err = s.identity.Email(ctx, userID); err != nil {
			return "", fmt.Errorf("failed to read user email: %w", err)
		}
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		UserID:     userID,
		PriceID:    priceID,
		Recurring:  recurring,
		CustomerID: customerID,
		Email:      email,
		SuccessURL: s.baseURL + "/billing/success",
		CancelURL:  s.baseURL + "/billing",
		TermsURL:   s.baseURL + "/tos",
	})
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrCheckoutCreationFailed
	}
	return url, nil
}

// StartPortalSession creates a self-service billing portal session for the
// user. Requires an existing plan record and a known customer id.
func (s *Service) StartPortalSession(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrUnauthorized
	}

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlanRecordNotFound) {
			return "", ErrNoActiveSubscription
		}
		return "", err
	}

	customerID := record.CustomerID
	if customerID == "" {
		// Fall back to the identity profile; the record may predate the
		// customer association.
		if customerID, err = s.identity.CustomerID(ctx, userID); err != nil || customerID == "" {
			return "", ErrCustomerIDNotFound
		}
	}

	url, err := s.gateway.CreatePortalSession(ctx, customerID, s.baseURL+"/billing")
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrPortalCreationFailed
	}
	return url, nil
}

// GrantManual upserts a plan record as if the corresponding billing event
// had been received. Used by the authenticated debug endpoint only.
// One-time grants run 15 days, pro and pro plus one month.
func (s *Service) GrantManual(ctx context.Context, userID string, level SubscriptionLevel) (*PlanRecord, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	now := s.now()
	var periodEnd time.Time
	switch level {
	case LevelOneTime:
		periodEnd = now.Add(OneTimeAccessPeriod)
	case LevelPro, LevelProPlus:
		periodEnd = now.AddDate(0, 1, 0)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlanType, level)
	}

	record := &PlanRecord{
		UserID:            userID,
		SubscriptionID:    fmt.Sprintf("manual_%s_%d", level, now.UnixMilli()),
		CustomerID:        "manual_customer_" + userID,
		PriceID:           s.prices.PriceFor(level),
		PeriodEnd:         periodEnd,
		CancelAtPeriodEnd: false,
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "manual plan grant created",
		logger.UserID(userID), slog.String("level", string(level)), slog.Time("period_end", periodEnd))
	return record, nil
}

// DebugSnapshot returns the raw plan record (nil when absent) together with
// the level it currently resolves to.
func (s *Service) DebugSnapshot(ctx context.Context, userID string) (*PlanRecord, SubscriptionLevel, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrPlanRecordNotFound) {
		return nil, LevelFree, err
	}
	return record, s.resolver.Resolve(ctx, userID), nil
}
