package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nullProvider is a zero-behavior provider for registry tests
type nullProvider struct {
	initErr error
}

func (n *nullProvider) Initialize(map[string]string) error { return n.initErr }
func (n *nullProvider) CreatePayment(context.Context, PaymentRequest) (*PaymentResult, error) {
	return &PaymentResult{Success: true}, nil
}
func (n *nullProvider) CancelPayment(context.Context, string) (*PaymentResult, error) {
	return &PaymentResult{Success: true}, nil
}
func (n *nullProvider) GetPaymentStatus(context.Context, string) (*PaymentResult, error) {
	return &PaymentResult{Success: true}, nil
}
func (n *nullProvider) CreateSubscription(context.Context, SubscriptionRequest) (*SubscriptionResult, error) {
	return &SubscriptionResult{Success: true}, nil
}
func (n *nullProvider) CancelSubscription(context.Context, string) (*SubscriptionResult, error) {
	return &SubscriptionResult{Success: true}, nil
}
func (n *nullProvider) SignatureScheme() WebhookSignatureScheme { return SchemeHMACPlain }
func (n *nullProvider) SignatureHeader() string                 { return "X-Signature" }
func (n *nullProvider) MapEventType(string) (string, bool)      { return "", false }
func (n *nullProvider) ParseWebhook([]byte) (*WebhookEventData, error) {
	return &WebhookEventData{}, nil
}

func TestRegistryConfigureAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register("test", func() PaymentProvider { return &nullProvider{} })

	assert.False(t, registry.Has("test"), "registered but unconfigured providers are not routable")
	assert.Contains(t, registry.RegisteredFactories(), "test")

	require.NoError(t, registry.Configure("test", map[string]string{"apiKey": "k"}))

	assert.True(t, registry.Has("test"))
	assert.Contains(t, registry.Names(), "test")

	instance, err := registry.Get("test")
	require.NoError(t, err)
	assert.NotNil(t, instance)
}

func TestRegistryGetUnconfigured(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestRegistryConfigureUnregistered(t *testing.T) {
	registry := NewRegistry()

	err := registry.Configure("missing", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistryConfigureInitializeError(t *testing.T) {
	registry := NewRegistry()
	registry.Register("broken", func() PaymentProvider {
		return &nullProvider{initErr: assert.AnError}
	})

	err := registry.Configure("broken", map[string]string{})
	require.Error(t, err)
	assert.False(t, registry.Has("broken"), "failed initialization must not configure the provider")
}

func TestRegistryReconfigureReplacesInstance(t *testing.T) {
	registry := NewRegistry()

	created := 0
	registry.Register("test", func() PaymentProvider {
		created++
		return &nullProvider{}
	})

	require.NoError(t, registry.Configure("test", nil))
	require.NoError(t, registry.Configure("test", nil))
	assert.Equal(t, 2, created)
}

func TestPaymentErrorFormatting(t *testing.T) {
	err := &PaymentError{Code: ErrCodePaymentFailed, Message: "card declined", Provider: "stripe"}
	assert.Equal(t, "PAYMENT_FAILED: card declined (provider: stripe)", err.Error())

	bare := &PaymentError{Code: ErrCodeValidationFailed, Message: "amount must be positive"}
	assert.Equal(t, "VALIDATION_FAILED: amount must be positive", bare.Error())
}
