package stripe

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
		"secretKey":     "sk_test_123",
		"webhookSecret": "whsec_123",
	}))
	return p
}

func TestInitializeRequiresSecretKey(t *testing.T) {
	p := NewProvider()

	err := p.Initialize(map[string]string{"webhookSecret": "whsec_123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secretKey")
}

func TestCreatePaymentLifecycle(t *testing.T) {
	p := newInitializedProvider(t)
	ctx := context.Background()

	result, err := p.CreatePayment(ctx, provider.PaymentRequest{Amount: 1999, Currency: "usd"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, provider.StatusCompleted, result.Status)
	assert.Equal(t, int64(1999), result.Amount)
	assert.Equal(t, "USD", result.Currency)
	require.NotEmpty(t, result.PaymentID)

	status, err := p.GetPaymentStatus(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, provider.StatusCompleted, status.Status)

	cancelled, err := p.CancelPayment(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, provider.StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.Success, "cancellation is a successful operation")
}

func TestCreatePaymentFailNext(t *testing.T) {
	p := newInitializedProvider(t)
	ctx := context.Background()

	p.FailNext = true

	_, err := p.CreatePayment(ctx, provider.PaymentRequest{Amount: 1000, Currency: "usd"})
	require.Error(t, err)

	// The failure is one-shot
	result, err := p.CreatePayment(ctx, provider.PaymentRequest{Amount: 1000, Currency: "usd"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestGetPaymentStatusUnknownIntent(t *testing.T) {
	p := newInitializedProvider(t)

	_, err := p.GetPaymentStatus(context.Background(), "pi_missing")
	assert.Error(t, err)
}

func TestMapEventType(t *testing.T) {
	p := newInitializedProvider(t)

	tests := []struct {
		native   string
		expected string
		known    bool
	}{
		{native: "payment_intent.succeeded", expected: provider.EventPaymentSucceeded, known: true},
		{native: "payment_intent.payment_failed", expected: provider.EventPaymentFailed, known: true},
		{native: "charge.refunded", expected: provider.EventPaymentRefunded, known: true},
		{native: "customer.subscription.created", expected: provider.EventSubscriptionCreated, known: true},
		{native: "customer.subscription.deleted", expected: provider.EventSubscriptionCancelled, known: true},
		{native: "invoice.finalized", known: false},
		{native: "", known: false},
	}

	for _, tt := range tests {
		unified, ok := p.MapEventType(tt.native)
		assert.Equal(t, tt.known, ok, "native type %q", tt.native)
		if tt.known {
			assert.Equal(t, tt.expected, unified)
		}
	}
}

func TestParseWebhook(t *testing.T) {
	p := newInitializedProvider(t)

	body := []byte(`{
		"id": "evt_123",
		"type": "payment_intent.succeeded",
		"created": 1700000000,
		"data": {"object": {"id": "pi_456", "amount": 2500, "currency": "eur"}}
	}`)

	data, err := p.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", data.EventID)
	assert.Equal(t, "payment_intent.succeeded", data.NativeType)
	assert.Equal(t, int64(1700000000), data.Timestamp.Unix())
	assert.Equal(t, "pi_456", data.PaymentID)
	assert.Equal(t, int64(2500), data.Amount)
	assert.Equal(t, "EUR", data.Currency)
}

func TestParseWebhookRejectsBadPayloads(t *testing.T) {
	p := newInitializedProvider(t)

	for _, body := range []string{`not json`, `{"type":"payment_intent.succeeded"}`} {
		_, err := p.ParseWebhook([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestSignatureScheme(t *testing.T) {
	p := newInitializedProvider(t)

	assert.Equal(t, provider.SchemeHMACTimestamp, p.SignatureScheme())
	assert.Equal(t, "Stripe-Signature", p.SignatureHeader())
}
