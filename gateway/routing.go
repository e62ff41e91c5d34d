package gateway

import (
	"sort"
	"sync/atomic"

	"github.com/paybridge/paybridge/provider"
)

// AmountBracket maps an inclusive minor-unit amount range to a provider
type AmountBracket struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Provider string `json:"provider"`
}

// RoutingRules is the static, read-only rule set consulted per request.
// Brackets are evaluated in order; the first match wins.
type RoutingRules struct {
	AmountBrackets    []AmountBracket   `json:"amountBrackets,omitempty"`
	CurrencyProviders map[string]string `json:"currencyProviders,omitempty"`
	MethodProviders   map[string]string `json:"methodProviders,omitempty"`
	CountryProviders  map[string]string `json:"countryProviders,omitempty"`
	DefaultProvider   string            `json:"defaultProvider"`
	FallbackProviders []string          `json:"fallbackProviders,omitempty"`
}

// Router selects a provider for an outbound request from the rule set and the
// current health table
type Router struct {
	registry            *provider.Registry
	rules               RoutingRules
	health              *HealthStore
	enableLoadBalancing bool
	rrCounter           atomic.Uint64
}

// NewRouter creates a routing engine
func NewRouter(registry *provider.Registry, rules RoutingRules, health *HealthStore, enableLoadBalancing bool) *Router {
	return &Router{
		registry:            registry,
		rules:               rules,
		health:              health,
		enableLoadBalancing: enableLoadBalancing,
	}
}

// Rules returns the static rule set
func (r *Router) Rules() RoutingRules {
	return r.rules
}

// SelectProvider picks the provider for a request. Precedence, first match
// wins: explicit override, amount bracket, currency, payment method, customer
// country, load-balanced choice among healthy providers, configured default.
// Selection never fails; when nothing matches the configured default is
// returned and the caller is responsible for having registered it.
func (r *Router) SelectProvider(request provider.PaymentRequest) string {
	if request.Provider != "" && r.registry.Has(request.Provider) {
		return request.Provider
	}

	for _, bracket := range r.rules.AmountBrackets {
		if request.Amount >= bracket.Min && request.Amount <= bracket.Max && r.registry.Has(bracket.Provider) {
			return bracket.Provider
		}
	}

	if name, ok := r.rules.CurrencyProviders[request.Currency]; ok && r.registry.Has(name) {
		return name
	}

	if request.PaymentMethod != "" {
		if name, ok := r.rules.MethodProviders[request.PaymentMethod]; ok && r.registry.Has(name) {
			return name
		}
	}

	if request.Customer != nil && request.Customer.Address != nil {
		if name, ok := r.rules.CountryProviders[request.Customer.Address.Country]; ok && r.registry.Has(name) {
			return name
		}
	}

	if r.enableLoadBalancing {
		if name := r.pickHealthy(); name != "" {
			return name
		}
	}

	return r.rules.DefaultProvider
}

// pickHealthy returns a round-robin choice among providers currently
// classified healthy. Providers without a health record are skipped here but
// stay reachable through explicit and default routes.
func (r *Router) pickHealthy() string {
	var healthy []string
	for _, name := range r.registry.Names() {
		if health, ok := r.health.Get(name); ok && health.Status == HealthHealthy {
			healthy = append(healthy, name)
		}
	}

	if len(healthy) == 0 {
		return ""
	}

	sort.Strings(healthy)
	idx := r.rrCounter.Add(1) - 1
	return healthy[idx%uint64(len(healthy))]
}
