package adyen

import "github.com/paybridge/paybridge/provider"

// Register Adyen provider with the gateway registry
func init() {
	provider.Register("adyen", NewProvider)
}
