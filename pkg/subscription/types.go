package subscription

import "time"

// SubscriptionLevel represents the plan a user is currently entitled to.
type SubscriptionLevel string

const (
	LevelFree    SubscriptionLevel = "free"
	LevelOneTime SubscriptionLevel = "one_time"
	LevelPro     SubscriptionLevel = "pro"
	LevelProPlus SubscriptionLevel = "pro_plus"
)

// Valid reports whether the level is one of the known plan levels.
func (l SubscriptionLevel) Valid() bool {
	switch l {
	case LevelFree, LevelOneTime, LevelPro, LevelProPlus:
		return true
	}
	return false
}

// Status represents the billing provider's subscription status.
type Status string

const (
	StatusActive     Status = "active"
	StatusTrialing   Status = "trialing"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
	StatusIncomplete Status = "incomplete"
	StatusPaused     Status = "paused"
)

// KeepsGrantAlive is the single source of truth for which provider statuses
// keep a plan grant in place. Any other status causes the matching records
// to be deleted during reconciliation.
func (s Status) KeepsGrantAlive() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	}
	return false
}

// PriceIDs carries the provider price identifiers for the three paid plans.
// A record whose price id matches none of them resolves to the free level
// (stale or legacy plan), not to an error.
type PriceIDs struct {
	OneTime        string `env:"STRIPE_PRICE_ID_ONE_TIME,required"`
	ProMonthly     string `env:"STRIPE_PRICE_ID_PRO_MONTHLY,required"`
	ProPlusMonthly string `env:"STRIPE_PRICE_ID_PRO_PLUS_MONTHLY,required"`
}

// LevelFor maps a price id to its plan level. Unknown ids map to LevelFree.
func (p PriceIDs) LevelFor(priceID string) SubscriptionLevel {
	switch priceID {
	case p.OneTime:
		return LevelOneTime
	case p.ProMonthly:
		return LevelPro
	case p.ProPlusMonthly:
		return LevelProPlus
	}
	return LevelFree
}

// PriceFor is the inverse of LevelFor for the paid levels.
// Returns an empty string for LevelFree and unknown levels.
func (p PriceIDs) PriceFor(level SubscriptionLevel) string {
	switch level {
	case LevelOneTime:
		return p.OneTime
	case LevelPro:
		return p.ProMonthly
	case LevelProPlus:
		return p.ProPlusMonthly
	}
	return ""
}

// OneTimeAccessPeriod is the validity window granted by a one-time payment.
// One-time grants are ordinary PlanRecords that expire through the same
// time-based check used for subscriptions.
const OneTimeAccessPeriod = 15 * 24 * time.Hour
