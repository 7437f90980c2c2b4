package subscription

import "time"

// PlanRecord is the locally persisted view of a user's paid plan.
// Exactly one record exists per user; all writes go through upsert keyed
// by UserID so event replays converge to the same state.
type PlanRecord struct {
	UserID            string    `json:"userId"`            // unique key
	SubscriptionID    string    `json:"subscriptionId"`    // provider subscription id; synthesized for one-time payments
	CustomerID        string    `json:"customerId"`        // provider customer id
	PriceID           string    `json:"priceId"`           // sole discriminator between one_time, pro and pro_plus
	PeriodEnd         time.Time `json:"periodEnd"`         // grant is invalid after this instant, cancellation flag or not
	CancelAtPeriodEnd bool      `json:"cancelAtPeriodEnd"` // informational; does not expire the grant early
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Validate checks the record invariants before persistence.
// A record without a concrete PeriodEnd must never be stored.
func (r *PlanRecord) Validate() error {
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if r.PeriodEnd.IsZero() {
		return ErrInvalidPeriodEnd
	}
	return nil
}

// IsExpired reports whether the grant has lapsed at the given instant.
// The grant is valid strictly before PeriodEnd.
func (r *PlanRecord) IsExpired(now time.Time) bool {
	return !r.PeriodEnd.After(now)
}
