package paypal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/paybridge/provider"
)

func newInitializedProvider(t *testing.T) *Provider {
	t.Helper()

	p := NewProvider().(*Provider)
	require.NoError(t, p.Initialize(map[string]string{
		"clientId":     "client_test",
		"clientSecret": "secret_test",
		"webhookId":    "wh_test",
	}))
	return p
}

func TestInitializeValidation(t *testing.T) {
	assert.Error(t, NewProvider().Initialize(map[string]string{"clientSecret": "s"}))
	assert.Error(t, NewProvider().Initialize(map[string]string{"clientId": "c"}))
}

func TestCreatePayment(t *testing.T) {
	p := newInitializedProvider(t)

	result, err := p.CreatePayment(context.Background(), provider.PaymentRequest{Amount: 1050, Currency: "usd"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, provider.StatusCompleted, result.Status)
	assert.Equal(t, "USD", result.Currency)
}

func TestParseWebhook(t *testing.T) {
	p := newInitializedProvider(t)

	body := []byte(`{
		"id": "WH-58D329510W468432D-8HN650336L201105X",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"create_time": "2026-08-01T10:15:00Z",
		"resource": {"id": "42311647XV020574X", "amount": {"value": "10.99", "currency_code": "USD"}}
	}`)

	data, err := p.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "WH-58D329510W468432D-8HN650336L201105X", data.EventID)
	assert.Equal(t, "PAYMENT.CAPTURE.COMPLETED", data.NativeType)
	assert.Equal(t, int64(1099), data.Amount, "decimal amount converted to minor units")
	assert.Equal(t, "USD", data.Currency)
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		value    string
		expected int64
	}{
		{value: "10.99", expected: 1099},
		{value: "0.01", expected: 1},
		{value: "100", expected: 10000},
		{value: "19.995", expected: 2000},
		{value: "", expected: 0},
		{value: "not-a-number", expected: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, minorUnits(tt.value), "value %q", tt.value)
	}
}

func TestSignatureScheme(t *testing.T) {
	p := newInitializedProvider(t)

	assert.Equal(t, provider.SchemeExternal, p.SignatureScheme())
	assert.Equal(t, "Paypal-Transmission-Sig", p.SignatureHeader())
}

func TestMapEventType(t *testing.T) {
	p := newInitializedProvider(t)

	unified, ok := p.MapEventType("BILLING.SUBSCRIPTION.CANCELLED")
	require.True(t, ok)
	assert.Equal(t, provider.EventSubscriptionCancelled, unified)

	_, ok = p.MapEventType("CUSTOMER.DISPUTE.CREATED")
	assert.False(t, ok)
}
