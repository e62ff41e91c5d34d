package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paybridge/paybridge/gateway"
	"github.com/paybridge/paybridge/handler"
	"github.com/paybridge/paybridge/provider"
	"github.com/paybridge/paybridge/webhook"
)

// Deps carries the wired services the v1 routes are built on
type Deps struct {
	Registry     *provider.Registry
	Orchestrator *gateway.Orchestrator
	Health       *gateway.HealthStore
	Pipeline     *webhook.Pipeline
	Dispatcher   *webhook.Dispatcher
	Validate     *validator.Validate
}

// Routes registers all v1 API routes
func Routes(r chi.Router, deps Deps) {
	paymentHandler := handler.NewPaymentHandler(deps.Orchestrator, deps.Validate)
	webhookHandler := handler.NewWebhookHandler(deps.Registry, deps.Pipeline, deps.Dispatcher)
	healthHandler := handler.NewHealthHandler(deps.Registry, deps.Health)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", paymentHandler.CreatePayment)
		r.Get("/{paymentID}", paymentHandler.GetPaymentStatus)
		r.Post("/{paymentID}/cancel", paymentHandler.CancelPayment)
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", paymentHandler.CreateSubscription)
		r.Delete("/{subscriptionID}", paymentHandler.CancelSubscription)
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/{provider}", webhookHandler.Receive)
		r.Get("/stats", webhookHandler.Stats)
	})

	r.Get("/health/providers", healthHandler.Providers)
}
