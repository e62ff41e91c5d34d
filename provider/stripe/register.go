package stripe

import "github.com/paybridge/paybridge/provider"

// Register Stripe provider with the gateway registry
func init() {
	provider.Register("stripe", NewProvider)
}
