package subscription

import "errors"

var (
	// Record/store errors
	ErrPlanRecordNotFound = errors.New("plan record not found")
	ErrMissingUserID      = errors.New("plan record user id is required")
	ErrInvalidPeriodEnd   = errors.New("plan record period end is required")

	// Request-time errors surfaced to callers
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNoActiveSubscription   = errors.New("no active subscription found")
	ErrCustomerIDNotFound     = errors.New("billing customer id not found")
	ErrCheckoutCreationFailed = errors.New("failed to create checkout session")
	ErrPortalCreationFailed   = errors.New("failed to create customer portal session")
	ErrUnknownPlanType        = errors.New("unknown plan type")

	// Event-handling errors; fatal for the single event, the provider's
	// webhook retry policy governs recovery
	ErrEventVerificationFailed = errors.New("event signature verification failed")
	ErrMissingUserMetadata     = errors.New("user id is missing in event metadata")
	ErrMissingPriceID          = errors.New("price id missing in session line items")
)
