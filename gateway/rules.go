package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/paybridge/paybridge/infra/config"
)

// LoadRoutingRules builds the routing rule set from configuration. The rule
// maps come from the GATEWAY_ROUTING_RULES JSON document; default and
// fallback providers from the gateway config always take effect, overriding
// whatever the document carries.
func LoadRoutingRules(cfg config.GatewayConfig) (RoutingRules, error) {
	var rules RoutingRules

	if raw := config.GetEnv("GATEWAY_ROUTING_RULES", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rules); err != nil {
			return RoutingRules{}, fmt.Errorf("invalid GATEWAY_ROUTING_RULES: %w", err)
		}
	}

	rules.DefaultProvider = cfg.DefaultProvider
	rules.FallbackProviders = cfg.FallbackProviders

	for i, bracket := range rules.AmountBrackets {
		if bracket.Min < 0 || bracket.Max < bracket.Min {
			return RoutingRules{}, fmt.Errorf("invalid amount bracket at index %d: min %d, max %d", i, bracket.Min, bracket.Max)
		}
		if bracket.Provider == "" {
			return RoutingRules{}, fmt.Errorf("amount bracket at index %d has no provider", i)
		}
	}

	return rules, nil
}
