package router

import (
	"github.com/go-chi/chi/v5"

	v1 "github.com/paybridge/paybridge/router/v1"

	// Import for side-effect registration
	_ "github.com/paybridge/paybridge/provider/adyen"
	_ "github.com/paybridge/paybridge/provider/paypal"
	_ "github.com/paybridge/paybridge/provider/stripe"
)

// Routes registers all versioned API routes
func Routes(r chi.Router, deps v1.Deps) {
	r.Route("/v1", func(r chi.Router) {
		v1.Routes(r, deps)
	})
}
