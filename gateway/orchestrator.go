package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/paybridge/paybridge/infra/analytics"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/provider"
)

// Orchestrator is the public façade for outbound payment operations. It
// composes the routing engine, failover coordinator and provider adapters and
// normalizes provider-specific results into the unified shape. Calls always
// resolve to a result object; no error escapes this boundary.
type Orchestrator struct {
	registry  *provider.Registry
	failover  *FailoverCoordinator
	collector analytics.Collector
}

// NewOrchestrator creates the payment orchestrator
func NewOrchestrator(registry *provider.Registry, failover *FailoverCoordinator, collector analytics.Collector) *Orchestrator {
	if collector == nil {
		collector = analytics.NopCollector{}
	}

	return &Orchestrator{
		registry:  registry,
		failover:  failover,
		collector: collector,
	}
}

// CreatePayment validates the request, routes it through the failover
// coordinator and records the outcome. Constraints beyond amount and currency
// are provider-specific and not enforced here.
func (o *Orchestrator) CreatePayment(ctx context.Context, request provider.PaymentRequest) *provider.PaymentResult {
	if request.Amount <= 0 {
		return failedResult("", provider.ErrCodeValidationFailed, "amount must be greater than zero", nil)
	}
	if strings.TrimSpace(request.Currency) == "" {
		return failedResult("", provider.ErrCodeValidationFailed, "currency is required", nil)
	}

	o.collector.Record(ctx, analytics.Event{
		Name:     analytics.EventPaymentCreated,
		Provider: request.Provider,
		Amount:   request.Amount,
		Currency: request.Currency,
	})

	result := o.failover.Execute(ctx, request)

	eventName := analytics.EventPaymentSucceeded
	if !result.Success {
		eventName = analytics.EventPaymentFailed
	}

	o.collector.Record(ctx, analytics.Event{
		Name:      eventName,
		Provider:  result.Provider,
		PaymentID: result.PaymentID,
		Amount:    request.Amount,
		Currency:  request.Currency,
		Status:    string(result.Status),
	})

	return result
}

// CancelPayment cancels a payment on an already-known provider; no routing is
// involved
func (o *Orchestrator) CancelPayment(ctx context.Context, paymentID, providerName string) *provider.PaymentResult {
	adapter, err := o.registry.Get(providerName)
	if err != nil {
		return failedResult(providerName, provider.ErrCodeProviderNotFound,
			fmt.Sprintf("provider '%s' is not configured", providerName), err)
	}

	result, err := adapter.CancelPayment(ctx, paymentID)
	if err != nil {
		logger.Warn("payment cancellation failed", logger.LogContext{
			Provider: providerName,
			Fields:   map[string]any{"payment_id": paymentID, "error": err.Error()},
		})
		return failedResult(providerName, provider.ErrCodeCancelFailed, "payment cancellation failed", err)
	}

	result.Provider = providerName
	return result
}

// GetPaymentStatus passes a status query through to the provider. An unknown
// provider yields a nil result without an error: absence is a valid terminal
// state.
func (o *Orchestrator) GetPaymentStatus(ctx context.Context, paymentID, providerName string) (*provider.PaymentResult, error) {
	adapter, err := o.registry.Get(providerName)
	if err != nil {
		return nil, nil
	}

	result, err := adapter.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("status query failed on provider '%s': %w", providerName, err)
	}

	result.Provider = providerName
	return result, nil
}

// CreateSubscription routes a recurring billing request the same way as a
// payment; absent an explicit override the provider is implied by the plan
// currency and amount.
func (o *Orchestrator) CreateSubscription(ctx context.Context, request provider.SubscriptionRequest) *provider.SubscriptionResult {
	if request.Amount <= 0 {
		return failedSubscriptionResult("", provider.ErrCodeValidationFailed, "amount must be greater than zero", nil)
	}
	if strings.TrimSpace(request.Currency) == "" {
		return failedSubscriptionResult("", provider.ErrCodeValidationFailed, "currency is required", nil)
	}

	result := o.failover.ExecuteSubscription(ctx, request)

	if result.Success {
		o.collector.Record(ctx, analytics.Event{
			Name:     analytics.EventSubscriptionCreated,
			Provider: result.Provider,
			Amount:   request.Amount,
			Currency: request.Currency,
			Status:   string(result.Status),
		})
	} else if result.Error != nil && result.Error.Code == provider.ErrCodeMaxRetriesExceeded {
		// Keep the coordinator's terminal code, but count the failure
		o.collector.Record(ctx, analytics.Event{
			Name:     analytics.EventPaymentFailed,
			Provider: result.Provider,
			Amount:   request.Amount,
			Currency: request.Currency,
			Status:   string(result.Status),
		})
	}

	return result
}

// CancelSubscription ends a subscription on an already-known provider
func (o *Orchestrator) CancelSubscription(ctx context.Context, subscriptionID, providerName string) *provider.SubscriptionResult {
	adapter, err := o.registry.Get(providerName)
	if err != nil {
		return failedSubscriptionResult(providerName, provider.ErrCodeProviderNotFound,
			fmt.Sprintf("provider '%s' is not configured", providerName), err)
	}

	result, err := adapter.CancelSubscription(ctx, subscriptionID)
	if err != nil {
		return failedSubscriptionResult(providerName, provider.ErrCodeCancelFailed, "subscription cancellation failed", err)
	}

	result.Provider = providerName

	o.collector.Record(ctx, analytics.Event{
		Name:     analytics.EventSubscriptionCancelled,
		Provider: providerName,
		Status:   string(result.Status),
	})

	return result
}
