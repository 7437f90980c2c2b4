// Package billing exposes the HTTP surface of the subscription pipeline:
// the provider webhook, checkout and portal initiation, and the
// development-only manual grant endpoint.
package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/resumekit/pkg/auth"
	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

// Module bundles the billing HTTP handlers and their dependencies.
type Module struct {
	svc        *subscription.Service
	reconciler *subscription.Reconciler
	gateway    subscription.BillingGateway
	debug      bool
	log        *slog.Logger
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithDebugEndpoints mounts the manual subscription endpoints. Never enable
// in production; the handlers bypass the billing provider entirely.
func WithDebugEndpoints() ModuleOption {
	return func(m *Module) {
		m.debug = true
	}
}

// NewModule creates the billing module. Panics if a required dependency is
// nil to fail fast during initialization.
func NewModule(svc *subscription.Service, reconciler *subscription.Reconciler, gateway subscription.BillingGateway, log *slog.Logger, opts ...ModuleOption) *Module {
	if svc == nil {
		panic("billing: subscription.Service is required")
	}
	if reconciler == nil {
		panic("billing: subscription.Reconciler is required")
	}
	if gateway == nil {
		panic("billing: subscription.BillingGateway is required")
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Module{
		svc:        svc,
		reconciler: reconciler,
		gateway:    gateway,
		log:        log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the module router, ready to be mounted.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billingModule.Handle())
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	// The provider signs its own requests; no session auth here.
	r.Post("/webhook", m.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/checkout", m.handleCheckout)
		r.Post("/portal", m.handlePortal)

		if m.debug {
			r.Post("/debug/manual-subscription", m.handleManualGrant)
			r.Get("/debug/subscription", m.handleDebugSnapshot)
		}
	})

	return r
}
