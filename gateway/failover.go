package gateway

import (
	"context"
	"fmt"

	"github.com/zoobzio/clockz"

	"github.com/paybridge/paybridge/infra/analytics"
	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/provider"
)

// FailoverCoordinator wraps a routing decision with bounded retries and
// ordered fallback-provider selection. The retry delay is constant: the
// configured backoff multiplier is carried in GatewayConfig but is not
// applied to the failover path.
type FailoverCoordinator struct {
	registry  *provider.Registry
	router    *Router
	health    *HealthStore
	collector analytics.Collector
	clock     clockz.Clock

	cfg config.GatewayConfig

	// shutdownCtx bounds retry sleeps; a caller's context deadline does not
	// interrupt the delay, only process shutdown does.
	shutdownCtx context.Context
}

// NewFailoverCoordinator creates a failover coordinator
func NewFailoverCoordinator(registry *provider.Registry, router *Router, health *HealthStore, collector analytics.Collector, cfg config.GatewayConfig, shutdownCtx context.Context) *FailoverCoordinator {
	if collector == nil {
		collector = analytics.NopCollector{}
	}
	if shutdownCtx == nil {
		shutdownCtx = context.Background()
	}

	return &FailoverCoordinator{
		registry:    registry,
		router:      router,
		health:      health,
		collector:   collector,
		clock:       clockz.RealClock,
		cfg:         cfg,
		shutdownCtx: shutdownCtx,
	}
}

// Execute attempts a payment against the routed provider, failing over to
// fallback providers on error. The same provider is never retried twice in a
// row; total attempts never exceed MaxRetries+1.
func (f *FailoverCoordinator) Execute(ctx context.Context, request provider.PaymentRequest) *provider.PaymentResult {
	providerName := f.router.SelectProvider(request)

	var lastErr error
	attempts := 0

	for {
		adapter, err := f.registry.Get(providerName)
		if err != nil {
			return failedResult(providerName, provider.ErrCodeProviderNotFound,
				fmt.Sprintf("provider '%s' is not configured", providerName), err)
		}

		result, err := adapter.CreatePayment(ctx, request)
		if err == nil && result != nil && result.Success {
			result.Provider = providerName
			return result
		}

		if err != nil {
			lastErr = err
		} else if result != nil && result.Error != nil {
			lastErr = result.Error
		} else {
			lastErr = fmt.Errorf("provider '%s' returned an unsuccessful result", providerName)
		}

		attempts++
		if !f.cfg.EnableFailover || attempts > f.cfg.MaxRetries {
			break
		}

		next := f.selectFallback(providerName)
		if next == "" {
			break
		}

		logger.Warn("payment attempt failed, switching provider", logger.LogContext{
			Provider: providerName,
			Fields: map[string]any{
				"attempt":       attempts,
				"next_provider": next,
				"error":         lastErr.Error(),
			},
		})

		f.collector.Record(ctx, analytics.Event{
			Name:     analytics.EventProviderSwitched,
			Provider: next,
			Fields: map[string]any{
				"from":    providerName,
				"attempt": attempts,
			},
		})

		if !f.wait() {
			break
		}

		providerName = next
	}

	return failedResult(providerName, provider.ErrCodeMaxRetriesExceeded,
		fmt.Sprintf("payment failed after %d attempt(s)", attempts), lastErr)
}

// ExecuteSubscription mirrors Execute for recurring billing requests
func (f *FailoverCoordinator) ExecuteSubscription(ctx context.Context, request provider.SubscriptionRequest) *provider.SubscriptionResult {
	providerName := f.router.SelectProvider(provider.PaymentRequest{
		Amount:   request.Amount,
		Currency: request.Currency,
		Customer: request.Customer,
		Provider: request.Provider,
	})

	var lastErr error
	attempts := 0

	for {
		adapter, err := f.registry.Get(providerName)
		if err != nil {
			return failedSubscriptionResult(providerName, provider.ErrCodeProviderNotFound,
				fmt.Sprintf("provider '%s' is not configured", providerName), err)
		}

		result, err := adapter.CreateSubscription(ctx, request)
		if err == nil && result != nil && result.Success {
			result.Provider = providerName
			return result
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("provider '%s' returned an unsuccessful result", providerName)
		}

		attempts++
		if !f.cfg.EnableFailover || attempts > f.cfg.MaxRetries {
			break
		}

		next := f.selectFallback(providerName)
		if next == "" {
			break
		}

		f.collector.Record(ctx, analytics.Event{
			Name:     analytics.EventProviderSwitched,
			Provider: next,
			Fields: map[string]any{
				"from":    providerName,
				"attempt": attempts,
			},
		})

		if !f.wait() {
			break
		}

		providerName = next
	}

	return failedSubscriptionResult(providerName, provider.ErrCodeMaxRetriesExceeded,
		fmt.Sprintf("subscription failed after %d attempt(s)", attempts), lastErr)
}

// selectFallback returns the first configured fallback that is not the
// provider that just failed, preferring a healthy one over a degraded one.
func (f *FailoverCoordinator) selectFallback(failed string) string {
	candidates := make([]string, 0, len(f.cfg.FallbackProviders))
	for _, name := range f.cfg.FallbackProviders {
		if name != failed && f.registry.Has(name) {
			candidates = append(candidates, name)
		}
	}

	for _, name := range candidates {
		if health, ok := f.health.Get(name); ok && health.Status == HealthHealthy {
			return name
		}
	}

	for _, name := range candidates {
		if health, ok := f.health.Get(name); ok && health.Status == HealthDegraded {
			return name
		}
	}

	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// wait sleeps for the configured retry delay. Only process shutdown cancels
// the sleep; returns false when the process is shutting down.
func (f *FailoverCoordinator) wait() bool {
	if f.cfg.RetryDelay <= 0 {
		return true
	}

	select {
	case <-f.clock.After(f.cfg.RetryDelay):
		return true
	case <-f.shutdownCtx.Done():
		return false
	}
}

func failedResult(providerName, code, message string, cause error) *provider.PaymentResult {
	return &provider.PaymentResult{
		Success:  false,
		Provider: providerName,
		Status:   provider.StatusFailed,
		Error: &provider.PaymentError{
			Code:     code,
			Message:  message,
			Provider: providerName,
			Err:      cause,
		},
	}
}

func failedSubscriptionResult(providerName, code, message string, cause error) *provider.SubscriptionResult {
	return &provider.SubscriptionResult{
		Success:  false,
		Provider: providerName,
		Status:   provider.StatusFailed,
		Error: &provider.PaymentError{
			Code:     code,
			Message:  message,
			Provider: providerName,
			Err:      cause,
		},
	}
}
