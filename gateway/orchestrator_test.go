package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/provider"
)

func newOrchestrator(registry *provider.Registry) *Orchestrator {
	coordinator := newCoordinator(registry, RoutingRules{DefaultProvider: "stripe"}, config.GatewayConfig{
		DefaultProvider: "stripe",
		EnableFailover:  true,
		MaxRetries:      2,
	})
	return NewOrchestrator(registry, coordinator, nil)
}

func TestCreatePaymentValidation(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	tests := []struct {
		name    string
		request provider.PaymentRequest
	}{
		{name: "zero_amount", request: provider.PaymentRequest{Amount: 0, Currency: "USD"}},
		{name: "negative_amount", request: provider.PaymentRequest{Amount: -100, Currency: "USD"}},
		{name: "missing_currency", request: provider.PaymentRequest{Amount: 100}},
		{name: "blank_currency", request: provider.PaymentRequest{Amount: 100, Currency: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := orchestrator.CreatePayment(context.Background(), tt.request)

			require.False(t, result.Success)
			require.NotNil(t, result.Error)
			assert.Equal(t, provider.ErrCodeValidationFailed, result.Error.Code)
		})
	}
}

func TestCreatePaymentDelegates(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	result := orchestrator.CreatePayment(context.Background(), provider.PaymentRequest{Amount: 1500, Currency: "USD"})

	require.True(t, result.Success)
	assert.Equal(t, "stripe", result.Provider)
	assert.Equal(t, provider.StatusCompleted, result.Status)
}

func TestCancelPaymentUnknownProvider(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	result := orchestrator.CancelPayment(context.Background(), "pay_123", "square")

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, provider.ErrCodeProviderNotFound, result.Error.Code)
}

func TestCancelPaymentProviderError(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe", err: errors.New("gateway timeout")}))

	result := orchestrator.CancelPayment(context.Background(), "pay_123", "stripe")

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, provider.ErrCodeCancelFailed, result.Error.Code)
}

func TestGetPaymentStatusUnknownProviderIsNotAnError(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	result, err := orchestrator.GetPaymentStatus(context.Background(), "pay_123", "square")

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetPaymentStatusKnownProvider(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	result, err := orchestrator.GetPaymentStatus(context.Background(), "pay_123", "stripe")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "pay_123", result.PaymentID)
	assert.Equal(t, "stripe", result.Provider)
}

func TestCreateSubscriptionValidation(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	result := orchestrator.CreateSubscription(context.Background(), provider.SubscriptionRequest{PlanID: "plan", Amount: 0, Currency: "USD"})

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, provider.ErrCodeValidationFailed, result.Error.Code)
}

func TestCancelSubscriptionUnknownProvider(t *testing.T) {
	orchestrator := newOrchestrator(newTestRegistry(&stubProvider{name: "stripe"}))

	result := orchestrator.CancelSubscription(context.Background(), "sub_123", "square")

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, provider.ErrCodeProviderNotFound, result.Error.Code)
}
