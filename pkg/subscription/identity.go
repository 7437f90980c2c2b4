package subscription

import (
	"context"
	"sync"
)

// IdentityStore is the per-user metadata surface of the identity provider.
// The reconciler writes the billing customer id here as a best-effort side
// effect; a failed write is logged and never fails the primary operation.
type IdentityStore interface {
	// SetCustomerID associates the provider customer id with the user's
	// identity profile.
	SetCustomerID(ctx context.Context, userID, customerID string) error

	// CustomerID returns the customer id stored on the user's profile,
	// or empty when none is known.
	CustomerID(ctx context.Context, userID string) (string, error)

	// Email returns the user's primary email address.
	Email(ctx context.Context, userID string) (string, error)
}

// memoryIdentityStore is an IdentityStore for tests and local development.
type memoryIdentityStore struct {
	mu        sync.RWMutex
	customers map[string]string
	emails    map[string]string
}

// NewMemoryIdentityStore returns an empty in-memory IdentityStore.
func NewMemoryIdentityStore() IdentityStore {
	return &memoryIdentityStore{
		customers: make(map[string]string),
		emails:    make(map[string]string),
	}
}

func (s *memoryIdentityStore) SetCustomerID(_ context.Context, userID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[userID] = customerID
	return nil
}

func (s *memoryIdentityStore) CustomerID(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers[userID], nil
}

func (s *memoryIdentityStore) Email(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emails[userID], nil
}
