package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeConfig holds configuration for the Stripe billing gateway.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_API_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeGateway implements BillingGateway for Stripe.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway creates a new Stripe billing gateway.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("stripe API key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}

	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreateCheckoutSession creates a hosted checkout session in Stripe.
// The user id is attached both to the session metadata and, for recurring
// prices, to the subscription metadata; the reconciler reads it from
// whichever object the follow-up event carries.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	if params.PriceID == "" {
		return "", errors.New("price id is required")
	}
	if params.UserID == "" {
		return "", errors.New("user id is required")
	}

	mode := stripe.CheckoutSessionModePayment
	if params.Recurring {
		mode = stripe.CheckoutSessionModeSubscription
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Currency: stripe.String("thb"),
		ConsentCollection: &stripe.CheckoutSessionConsentCollectionParams{
			TermsOfService: stripe.String("required"),
		},
		CustomText: &stripe.CheckoutSessionCustomTextParams{
			TermsOfServiceAcceptance: &stripe.CheckoutSessionCustomTextTermsOfServiceAcceptanceParams{
				Message: stripe.String(fmt.Sprintf("I have read the [terms of service](%s) and agree to them.", params.TermsURL)),
			},
		},
	}
	sessionParams.Context = ctx
	sessionParams.AddMetadata("userId", params.UserID)

	if params.Recurring {
		sessionParams.PaymentMethodTypes = stripe.StringSlice([]string{"card"})
		sessionParams.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": params.UserID},
		}
	} else {
		sessionParams.PaymentMethodTypes = stripe.StringSlice([]string{"card", "promptpay"})
	}

	if params.CustomerID != "" {
		sessionParams.Customer = stripe.String(params.CustomerID)
	} else if params.Email != "" {
		sessionParams.CustomerEmail = stripe.String(params.Email)
	}

	sess, err := g.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession returns a Stripe billing portal URL for the customer.
func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if customerID == "" {
		return "", errors.New("customer id is required")
	}

	portalParams := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	portalParams.Context = ctx

	sess, err := g.api.BillingPortalSessions.New(portalParams)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	return sess.URL, nil
}

// GetSubscription fetches the full subscription object from Stripe.
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	subParams := &stripe.SubscriptionParams{}
	subParams.Context = ctx

	sub, err := g.api.Subscriptions.Get(subscriptionID, subParams)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stripe subscription: %w", err)
	}
	return normalizeSubscription(sub), nil
}

// ListCheckoutPriceIDs returns the price ids of a checkout session's line items.
func (g *StripeGateway) ListCheckoutPriceIDs(ctx context.Context, sessionID string) ([]string, error) {
	listParams := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(5)

	var priceIDs []string
	iter := g.api.CheckoutSessions.ListLineItems(listParams)
	for iter.Next() {
		item := iter.LineItem()
		if item.Price != nil {
			priceIDs = append(priceIDs, item.Price.ID)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stripe line items: %w", err)
	}
	return priceIDs, nil
}

// IsRecurringPrice reports whether the price bills on a recurring interval.
func (g *StripeGateway) IsRecurringPrice(ctx context.Context, priceID string) (bool, error) {
	priceParams := &stripe.PriceParams{}
	priceParams.Context = ctx

	price, err := g.api.Prices.Get(priceID, priceParams)
	if err != nil {
		return false, fmt.Errorf("failed to retrieve stripe price: %w", err)
	}
	return price.Type == stripe.PriceTypeRecurring, nil
}

// VerifyEvent authenticates the raw webhook payload against the
// Stripe-Signature header and returns the normalized event. The underlying
// verification error is joined for logging but callers should surface only
// ErrEventVerificationFailed.
func (g *StripeGateway) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	// The account may be pinned to a different API version than the SDK;
	// the fields read below are stable across the versions in play.
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, errors.Join(ErrEventVerificationFailed, err)
	}
	return normalizeEvent(stripeEvent)
}

// normalizeEvent maps a verified Stripe event into the package's Event type.
func normalizeEvent(stripeEvent stripe.Event) (Event, error) {
	event := Event{
		ID:   stripeEvent.ID,
		Type: string(stripeEvent.Type),
	}

	switch event.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return Event{}, fmt.Errorf("failed to parse checkout session payload: %w", err)
		}
		event.Session = &CheckoutSession{
			ID:         sess.ID,
			Mode:       string(sess.Mode),
			UserID:     sess.Metadata["userId"],
			CustomerID: customerID(sess.Customer),
		}

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("failed to parse subscription payload: %w", err)
		}
		// Only the id is taken here; the reconciler refetches the full
		// object so it never acts on a stale event body.
		event.SubscriptionID = sub.ID

	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("failed to parse subscription payload: %w", err)
		}
		event.Subscription = normalizeSubscription(&sub)
	}

	return event, nil
}

func normalizeSubscription(sub *stripe.Subscription) *SubscriptionInfo {
	info := &SubscriptionInfo{
		ID:                sub.ID,
		CustomerID:        customerID(sub.Customer),
		UserID:            sub.Metadata["userId"],
		Status:            Status(sub.Status),
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		info.PriceID = sub.Items.Data[0].Price.ID
	}
	return info
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
