package subscription

import "context"

// PlanRecordStore defines persistence for plan records.
// Each user has at most one record, so UserID serves as the primary key.
// Upsert must be atomic at the single-record granularity; last write wins
// under the store's own concurrency control. No multi-record transactions
// are required or provided.
type PlanRecordStore interface {
	// Get retrieves the record for a user.
	// Returns ErrPlanRecordNotFound if no record exists.
	Get(ctx context.Context, userID string) (*PlanRecord, error)

	// Upsert creates or replaces the record keyed by UserID.
	// Implementations must reject records that fail Validate.
	Upsert(ctx context.Context, record *PlanRecord) error

	// DeleteByUserID removes the user's record.
	// Deleting an absent record is a success, not an error.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteByCustomerID removes all records matching the provider customer id.
	// Matching zero records is a success.
	DeleteByCustomerID(ctx context.Context, customerID string) error
}
