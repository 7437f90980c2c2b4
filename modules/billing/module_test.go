package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/resumekit/modules/billing"
	"github.com/dmitrymomot/resumekit/pkg/auth"
	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

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

type testEnv struct {
	handler http.Handler
	store   subscription.PlanRecordStore
	gateway *mockGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	prices := subscription.PriceIDs{
		OneTime:        "price_one_time",
		ProMonthly:     "price_pro",
		ProPlusMonthly: "price_pro_plus",
	}

	store := subscription.NewMemoryStore()
	identity := subscription.NewMemoryIdentityStore()
	gateway := new(mockGateway)

	resolver := subscription.NewResolver(store, prices, log)
	reconciler := subscription.NewReconciler(store, gateway, identity, prices, log)
	svc := subscription.NewService(
		subscription.Config{BaseURL: "https://resumekit.test"},
		store, gateway, identity, resolver, prices, log,
	)

	module := billing.NewModule(svc, reconciler, gateway, log, billing.WithDebugEndpoints())
	return &testEnv{
		handler: auth.Middleware(module.Handle()),
		store:   store,
		gateway: gateway,
	}
}

func (e *testEnv) do(method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(auth.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("verification failure returns 400", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.gateway.On("VerifyEvent", mock.Anything, "bad-signature").
			Return(subscription.Event{}, subscription.ErrEventVerificationFailed)

		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "bad-signature")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "webhook verification failed")
	})

	t.Run("handling failure returns 500", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.gateway.On("VerifyEvent", mock.Anything, mock.Anything).Return(subscription.Event{
			Type:           subscription.EventSubscriptionCreated,
			SubscriptionID: "sub_1",
		}, nil)
		env.gateway.On("GetSubscription", mock.Anything, "sub_1").
			Return(nil, errors.New("api unavailable"))

		rec := env.do(http.MethodPost, "/webhook", "", `{}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("handled event returns 200 and updates the store", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.gateway.On("VerifyEvent", mock.Anything, mock.Anything).Return(subscription.Event{
			Type: subscription.EventCheckoutCompleted,
			Session: &subscription.CheckoutSession{
				ID:         "cs_123",
				Mode:       subscription.CheckoutModePayment,
				UserID:     "user_1",
				CustomerID: "cus_1",
			},
		}, nil)
		env.gateway.On("ListCheckoutPriceIDs", mock.Anything, "cs_123").
			Return([]string{"price_one_time"}, nil)

		rec := env.do(http.MethodPost, "/webhook", "", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)

		record, err := env.store.Get(context.Background(), "user_1")
		require.NoError(t, err)
		assert.Equal(t, "one_time_cs_123", record.SubscriptionID)
	})

	t.Run("unhandled event kind returns 200", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.gateway.On("VerifyEvent", mock.Anything, mock.Anything).
			Return(subscription.Event{Type: "invoice.paid"}, nil)

		rec := env.do(http.MethodPost, "/webhook", "", `{}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns the redirect url", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.gateway.On("IsRecurringPrice", mock.Anything, "price_pro").Return(true, nil)
		env.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return("https://checkout.test/session", nil)

		rec := env.do(http.MethodPost, "/checkout", "user_1", `{"priceId":"price_pro"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "https://checkout.test/session", resp["redirectUrl"])
	})

	t.Run("anonymous request is rejected", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/checkout", "", `{"priceId":"price_pro"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing price id is a bad request", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/checkout", "user_1", `{"priceId":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("gateway failure is a server error", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.gateway.On("IsRecurringPrice", mock.Anything, "price_pro").
			Return(false, errors.New("api unavailable"))

		rec := env.do(http.MethodPost, "/checkout", "user_1", `{"priceId":"price_pro"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPortalEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns the portal url", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		require.NoError(t, env.store.Upsert(context.Background(), &subscription.PlanRecord{
			UserID:         "user_1",
			SubscriptionID: "sub_1",
			CustomerID:     "cus_1",
			PriceID:        "price_pro",
			PeriodEnd:      time.Now().Add(time.Hour),
		}))
		env.gateway.On("CreatePortalSession", mock.Anything, "cus_1", "https://resumekit.test/billing").
			Return("https://portal.test/session", nil)

		rec := env.do(http.MethodPost, "/portal", "user_1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "https://portal.test/session", resp["redirectUrl"])
	})

	t.Run("no subscription record", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/portal", "user_1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No active subscription found")
	})

	t.Run("record without customer id", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		require.NoError(t, env.store.Upsert(context.Background(), &subscription.PlanRecord{
			UserID:         "user_1",
			SubscriptionID: "sub_1",
			PriceID:        "price_pro",
			PeriodEnd:      time.Now().Add(time.Hour),
		}))

		rec := env.do(http.MethodPost, "/portal", "user_1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Stripe customer ID not found")
	})
}

func TestManualGrantEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("grants the caller's own plan", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/debug/manual-subscription", "user_1",
			`{"userId":"user_1","planType":"pro"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success      bool                     `json:"success"`
			Subscription *subscription.PlanRecord `json:"subscription"`
			Message      string                   `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Subscription)
		assert.Equal(t, "manual_customer_user_1", resp.Subscription.CustomerID)
		assert.Contains(t, resp.Subscription.SubscriptionID, "manual_pro_")

		record, err := env.store.Get(context.Background(), "user_1")
		require.NoError(t, err)
		assert.Equal(t, "price_pro", record.PriceID)
	})

	t.Run("granting another user is unauthorized", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/debug/manual-subscription", "user_1",
			`{"userId":"user_2","planType":"pro"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		_, err := env.store.Get(context.Background(), "user_2")
		assert.ErrorIs(t, err, subscription.ErrPlanRecordNotFound)
	})

	t.Run("unknown plan type is a bad request", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/debug/manual-subscription", "user_1",
			`{"userId":"user_1","planType":"platinum"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown plan type")
	})
}

func TestDebugSnapshotEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("free user has no record", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rec := env.do(http.MethodGet, "/debug/subscription", "user_1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success      bool                     `json:"success"`
			Subscription *subscription.PlanRecord `json:"subscription"`
			Level        string                   `json:"level"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Subscription)
		assert.Equal(t, "free", resp.Level)
	})

	t.Run("active record resolves to its level", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		require.NoError(t, env.store.Upsert(context.Background(), &subscription.PlanRecord{
			UserID:         "user_1",
			SubscriptionID: "sub_1",
			CustomerID:     "cus_1",
			PriceID:        "price_pro_plus",
			PeriodEnd:      time.Now().Add(time.Hour),
		}))

		rec := env.do(http.MethodGet, "/debug/subscription", "user_1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"pro_plus"`)
	})
}

func TestDebugEndpointsDisabledByDefault(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	prices := subscription.PriceIDs{OneTime: "p1", ProMonthly: "p2", ProPlusMonthly: "p3"}
	store := subscription.NewMemoryStore()
	identity := subscription.NewMemoryIdentityStore()
	gateway := new(mockGateway)
	resolver := subscription.NewResolver(store, prices, log)
	reconciler := subscription.NewReconciler(store, gateway, identity, prices, log)
	svc := subscription.NewService(subscription.Config{BaseURL: "https://resumekit.test"},
		store, gateway, identity, resolver, prices, log)

	module := billing.NewModule(svc, reconciler, gateway, log)
	handler := auth.Middleware(module.Handle())

	req := httptest.NewRequest(http.MethodPost, "/debug/manual-subscription",
		strings.NewReader(`{"userId":"user_1","planType":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.UserIDHeader, "user_1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
