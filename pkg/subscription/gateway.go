package subscription

import (
	"context"
	"time"
)

// BillingGateway defines the minimal interface to the external billing
// provider. The implementation handles provider-specific wire formats and
// signature schemes internally; the reconciler and service only see the
// normalized types below.
type BillingGateway interface {
	// CreateCheckoutSession creates a hosted checkout session and returns
	// its redirect URL. The user id must be attached as session metadata
	// (and subscription metadata for recurring prices) because the
	// reconciler depends on it.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// CreatePortalSession returns a self-service billing portal URL for
	// the given provider customer.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// GetSubscription fetches the full subscription object by id.
	// Created/updated events reference the subscription only by id, so the
	// reconciler performs this follow-up fetch.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error)

	// ListCheckoutPriceIDs returns the price ids of a checkout session's
	// line items, in order.
	ListCheckoutPriceIDs(ctx context.Context, sessionID string) ([]string, error)

	// IsRecurringPrice reports whether the price bills on a recurring
	// interval (subscription mode) or once (payment mode).
	IsRecurringPrice(ctx context.Context, priceID string) (bool, error)

	// VerifyEvent authenticates a raw webhook payload against its
	// signature header and returns the normalized event. Verification
	// failures return ErrEventVerificationFailed without revealing which
	// part of the signature check failed.
	VerifyEvent(payload []byte, signatureHeader string) (Event, error)
}

// CheckoutParams describes a checkout session to create.
type CheckoutParams struct {
	UserID     string
	PriceID    string
	Recurring  bool   // selects subscription vs one-time payment mode
	CustomerID string // existing provider customer, if known
	Email      string // used when no customer id exists yet
	SuccessURL string
	CancelURL  string
	TermsURL   string // linked from the checkout consent text
}

// Event kinds handled by the reconciler. Everything else is a no-op.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a normalized billing event. Exactly one of the payload fields
// is set depending on Type.
type Event struct {
	ID   string
	Type string

	// Session is set for checkout.session.completed.
	Session *CheckoutSession

	// SubscriptionID is set for customer.subscription.created/updated;
	// the full object must be refetched through the gateway.
	SubscriptionID string

	// Subscription is set for customer.subscription.deleted, which
	// carries the full object in the event payload.
	Subscription *SubscriptionInfo
}

// CheckoutSession is the normalized view of a completed checkout session.
type CheckoutSession struct {
	ID         string
	Mode       string // "payment" for one-time, "subscription" for recurring
	UserID     string // from session metadata; empty when missing
	CustomerID string
}

// CheckoutModePayment marks a one-time payment checkout session.
const CheckoutModePayment = "payment"

// SubscriptionInfo is the normalized view of a provider subscription object.
type SubscriptionInfo struct {
	ID                string
	CustomerID        string
	UserID            string // from subscription metadata; empty when missing
	Status            Status
	PriceID           string // first line item's price
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}
