package subscription_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPrices() subscription.PriceIDs {
	return subscription.PriceIDs{
		OneTime:        "price_one_time",
		ProMonthly:     "price_pro",
		ProPlusMonthly: "price_pro_plus",
	}
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, params subscription.CheckoutParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) GetSubscription(ctx context.Context, subscriptionID string) (*subscription.SubscriptionInfo, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.SubscriptionInfo), args.Error(1)
}

func (m *mockGateway) ListCheckoutPriceIDs(ctx context.Context, sessionID string) ([]string, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGateway) IsRecurringPrice(ctx context.Context, priceID string) (bool, error) {
	args := m.Called(ctx, priceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockGateway) VerifyEvent(payload []byte, signatureHeader string) (subscription.Event, error) {
	args := m.Called(payload, signatureHeader)
	return args.Get(0).(subscription.Event), args.Error(1)
}

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) SetCustomerID(ctx context.Context, userID, customerID string) error {
	args := m.Called(ctx, userID, customerID)
	return args.Error(0)
}

func (m *mockIdentity) CustomerID(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockIdentity) Email(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, userID string) (*subscription.PlanRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.PlanRecord), args.Error(1)
}

func (m *mockStore) Upsert(ctx context.Context, record *subscription.PlanRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockStore) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStore) DeleteByCustomerID(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}
