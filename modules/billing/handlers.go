package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrymomot/resumekit/pkg/auth"
	"github.com/dmitrymomot/resumekit/pkg/binder"
	"github.com/dmitrymomot/resumekit/pkg/logger"
	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

// maxWebhookBody caps the raw payload read for signature verification.
const maxWebhookBody = 1 << 20

// SignatureHeader carries the provider's payload signature.
const SignatureHeader = "Stripe-Signature"

// handleWebhook verifies and reconciles a single billing event.
// 400 means the payload never authenticated and must not be retried;
// 500 asks the provider to redeliver.
func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read webhook payload", logger.Error(err))
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	event, err := m.gateway.VerifyEvent(payload, r.Header.Get(SignatureHeader))
	if err != nil {
		m.log.WarnContext(ctx, "webhook verification failed", logger.Error(err))
		writeError(w, http.StatusBadRequest, "webhook verification failed")
		return
	}

	if err := m.reconciler.HandleEvent(ctx, event); err != nil {
		m.log.ErrorContext(ctx, "webhook event handling failed",
			logger.EventType(event.Type), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "event handling failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

type redirectResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

func (m *Module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req checkoutRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PriceID == "" {
		writeError(w, http.StatusBadRequest, "priceId is required")
		return
	}

	url, err := m.svc.StartCheckout(ctx, userID, req.PriceID)
	if err != nil {
		if errors.Is(err, subscription.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		m.log.ErrorContext(ctx, "failed to start checkout",
			logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, redirectResponse{RedirectURL: url})
}

func (m *Module) handlePortal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	url, err := m.svc.StartPortalSession(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, subscription.ErrNoActiveSubscription):
			writeError(w, http.StatusBadRequest, "No active subscription found")
		case errors.Is(err, subscription.ErrCustomerIDNotFound):
			writeError(w, http.StatusBadRequest, "Stripe customer ID not found")
		default:
			m.log.ErrorContext(ctx, "failed to start portal session",
				logger.UserID(userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create portal session")
		}
		return
	}

	writeJSON(w, http.StatusOK, redirectResponse{RedirectURL: url})
}

type manualGrantRequest struct {
	UserID   string `json:"userId"`
	PlanType string `json:"planType"`
}

type manualGrantResponse struct {
	Success      bool                           `json:"success"`
	Subscription *subscription.PlanRecord       `json:"subscription,omitempty"`
	Level        subscription.SubscriptionLevel `json:"level,omitempty"`
	Message      string                         `json:"message,omitempty"`
	Error        string                         `json:"error,omitempty"`
}

// handleManualGrant creates a plan record without going through the billing
// provider. Callers may only grant plans to themselves.
func (m *Module) handleManualGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authedUserID := auth.UserIDFromContext(ctx)

	var req manualGrantRequest
	if err := binder.JSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, manualGrantResponse{Error: err.Error()})
		return
	}

	if req.UserID == "" || req.UserID != authedUserID {
		writeJSON(w, http.StatusUnauthorized, manualGrantResponse{Error: "user mismatch"})
		return
	}

	record, err := m.svc.GrantManual(ctx, req.UserID, subscription.SubscriptionLevel(req.PlanType))
	if err != nil {
		if errors.Is(err, subscription.ErrUnknownPlanType) {
			writeJSON(w, http.StatusBadRequest, manualGrantResponse{Error: "unknown plan type: " + req.PlanType})
			return
		}
		m.log.ErrorContext(ctx, "manual grant failed",
			logger.UserID(req.UserID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, manualGrantResponse{Error: "failed to create subscription"})
		return
	}

	writeJSON(w, http.StatusOK, manualGrantResponse{
		Success:      true,
		Subscription: record,
		Message:      "Subscription created successfully",
	})
}

// handleDebugSnapshot returns the caller's raw plan record together with
// the level it resolves to right now.
func (m *Module) handleDebugSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	record, level, err := m.svc.DebugSnapshot(ctx, userID)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read subscription snapshot",
			logger.UserID(userID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, manualGrantResponse{Error: "failed to read subscription"})
		return
	}

	writeJSON(w, http.StatusOK, manualGrantResponse{
		Success:      true,
		Subscription: record,
		Level:        level,
	})
}
