package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCamelKey(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "SECRET_KEY", expected: "secretKey"},
		{in: "API_KEY", expected: "apiKey"},
		{in: "WEBHOOK_SECRET", expected: "webhookSecret"},
		{in: "MERCHANT_ACCOUNT", expected: "merchantAccount"},
		{in: "CLIENT_ID", expected: "clientId"},
		{in: "HMAC_KEY", expected: "hmacKey"},
		{in: "KEY", expected: "key"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, camelKey(tt.in))
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROVIDER_STRIPE_SECRET_KEY", "sk_test_abc")
	t.Setenv("PROVIDER_STRIPE_WEBHOOK_SECRET", "whsec_abc")
	t.Setenv("PROVIDER_ADYEN_API_KEY", "AQE_abc")
	t.Setenv("PROVIDER_ADYEN_MERCHANT_ACCOUNT", "TestMerchant")

	pc := NewProviderConfig(nil)
	pc.LoadFromEnv()

	stripeCfg, err := pc.GetConfig("stripe")
	require.NoError(t, err)
	assert.Equal(t, "sk_test_abc", stripeCfg["secretKey"])
	assert.Equal(t, "whsec_abc", stripeCfg["webhookSecret"])

	adyenCfg, err := pc.GetConfig("adyen")
	require.NoError(t, err)
	assert.Equal(t, "AQE_abc", adyenCfg["apiKey"])
	assert.Equal(t, "TestMerchant", adyenCfg["merchantAccount"])

	assert.ElementsMatch(t, []string{"stripe", "adyen"}, pc.GetAvailableProviders())
}

func TestSetAndGetConfig(t *testing.T) {
	pc := NewProviderConfig(nil)

	require.NoError(t, pc.SetConfig("stripe", map[string]string{"secretKey": "sk_1"}))

	cfg, err := pc.GetConfig("stripe")
	require.NoError(t, err)
	assert.Equal(t, "sk_1", cfg["secretKey"])

	// Returned map is a copy
	cfg["secretKey"] = "mutated"
	fresh, err := pc.GetConfig("stripe")
	require.NoError(t, err)
	assert.Equal(t, "sk_1", fresh["secretKey"])
}

func TestSetConfigValidation(t *testing.T) {
	pc := NewProviderConfig(nil)

	assert.Error(t, pc.SetConfig("", map[string]string{"k": "v"}))
	assert.Error(t, pc.SetConfig("stripe", nil))
}

func TestGetConfigUnknownProvider(t *testing.T) {
	pc := NewProviderConfig(nil)

	_, err := pc.GetConfig("missing")
	assert.Error(t, err)
}

func TestWebhookSecrets(t *testing.T) {
	pc := NewProviderConfig(nil)
	require.NoError(t, pc.SetConfig("stripe", map[string]string{"secretKey": "sk", "webhookSecret": "whsec_1"}))
	require.NoError(t, pc.SetConfig("adyen", map[string]string{"apiKey": "k", "hmacKey": "hmac_1"}))
	require.NoError(t, pc.SetConfig("paypal", map[string]string{"clientId": "c", "clientSecret": "s"}))

	secrets := pc.WebhookSecrets()
	assert.Equal(t, "whsec_1", secrets["stripe"])
	assert.Equal(t, "hmac_1", secrets["adyen"])
	assert.NotContains(t, secrets, "paypal", "providers without a signing secret are omitted")
}
