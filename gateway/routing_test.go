package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paybridge/paybridge/provider"
)

func TestSelectProviderPrecedence(t *testing.T) {
	registry := newTestRegistry(
		&stubProvider{name: "stripe"},
		&stubProvider{name: "adyen"},
		&stubProvider{name: "paypal"},
	)

	rules := RoutingRules{
		AmountBrackets: []AmountBracket{
			{Min: 0, Max: 5000, Provider: "stripe"},
			{Min: 5001, Max: 1000000, Provider: "adyen"},
		},
		CurrencyProviders: map[string]string{"EUR": "adyen"},
		MethodProviders:   map[string]string{"wallet": "paypal"},
		CountryProviders:  map[string]string{"DE": "adyen"},
		DefaultProvider:   "stripe",
	}

	router := NewRouter(registry, rules, NewHealthStore(), false)

	tests := []struct {
		name     string
		request  provider.PaymentRequest
		expected string
	}{
		{
			name:     "explicit_override_wins_over_everything",
			request:  provider.PaymentRequest{Amount: 100, Currency: "EUR", Provider: "paypal", PaymentMethod: "wallet"},
			expected: "paypal",
		},
		{
			name:     "amount_bracket_beats_currency_rule",
			request:  provider.PaymentRequest{Amount: 100, Currency: "EUR"},
			expected: "stripe",
		},
		{
			name:     "second_bracket_matches_larger_amount",
			request:  provider.PaymentRequest{Amount: 10000, Currency: "USD"},
			expected: "adyen",
		},
		{
			name:     "currency_rule_when_no_bracket_matches",
			request:  provider.PaymentRequest{Amount: 2000000, Currency: "EUR"},
			expected: "adyen",
		},
		{
			name:     "method_rule_after_currency",
			request:  provider.PaymentRequest{Amount: 2000000, Currency: "USD", PaymentMethod: "wallet"},
			expected: "paypal",
		},
		{
			name: "country_rule_after_method",
			request: provider.PaymentRequest{
				Amount:   2000000,
				Currency: "USD",
				Customer: &provider.Customer{Email: "a@b.com", Address: &provider.Address{Country: "DE"}},
			},
			expected: "adyen",
		},
		{
			name:     "default_when_nothing_matches",
			request:  provider.PaymentRequest{Amount: 2000000, Currency: "GBP"},
			expected: "stripe",
		},
		{
			name:     "unregistered_override_is_ignored",
			request:  provider.PaymentRequest{Amount: 100, Currency: "USD", Provider: "square"},
			expected: "stripe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, router.SelectProvider(tt.request))
		})
	}
}

func TestSelectProviderNeverFails(t *testing.T) {
	// Empty registry, empty rules: selection still returns the default name
	router := NewRouter(provider.NewRegistry(), RoutingRules{DefaultProvider: "stripe"}, NewHealthStore(), false)

	name := router.SelectProvider(provider.PaymentRequest{Amount: 100, Currency: "USD"})
	assert.Equal(t, "stripe", name)
}

func TestSelectProviderLoadBalancing(t *testing.T) {
	registry := newTestRegistry(
		&stubProvider{name: "stripe"},
		&stubProvider{name: "adyen"},
		&stubProvider{name: "paypal"},
	)

	health := NewHealthStore()
	setHealth(health, "stripe", HealthHealthy)
	setHealth(health, "adyen", HealthHealthy)
	setHealth(health, "paypal", HealthDown)

	router := NewRouter(registry, RoutingRules{DefaultProvider: "paypal"}, health, true)

	seen := map[string]int{}
	for i := 0; i < 10; i++ {
		seen[router.SelectProvider(provider.PaymentRequest{Amount: 100, Currency: "USD"})]++
	}

	assert.Equal(t, 5, seen["stripe"], "round robin should alternate between healthy providers")
	assert.Equal(t, 5, seen["adyen"])
	assert.Zero(t, seen["paypal"], "down provider must not be load balanced")
}

func TestSelectProviderLoadBalancingSkipsUnprobed(t *testing.T) {
	registry := newTestRegistry(
		&stubProvider{name: "stripe"},
		&stubProvider{name: "adyen"},
	)

	// No health records at all: load balancing has nothing to pick from and
	// selection falls back to the default
	router := NewRouter(registry, RoutingRules{DefaultProvider: "adyen"}, NewHealthStore(), true)

	assert.Equal(t, "adyen", router.SelectProvider(provider.PaymentRequest{Amount: 100, Currency: "USD"}))
}

func TestSelectProviderExplicitOverrideIgnoresHealth(t *testing.T) {
	registry := newTestRegistry(&stubProvider{name: "stripe"})

	health := NewHealthStore()
	setHealth(health, "stripe", HealthDown)

	router := NewRouter(registry, RoutingRules{DefaultProvider: "stripe"}, health, true)

	// A down provider stays reachable when named explicitly
	name := router.SelectProvider(provider.PaymentRequest{Amount: 100, Currency: "USD", Provider: "stripe"})
	assert.Equal(t, "stripe", name)
}
