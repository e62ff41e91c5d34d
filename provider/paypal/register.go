package paypal

import "github.com/paybridge/paybridge/provider"

// Register PayPal provider with the gateway registry
func init() {
	provider.Register("paypal", NewProvider)
}
