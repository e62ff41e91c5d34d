package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paybridge/paybridge/provider"
)

// callRecorder collects the order in which stub providers were attempted
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *callRecorder) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// stubProvider is a scriptable PaymentProvider for gateway tests
type stubProvider struct {
	name     string
	fail     bool
	err      error
	recorder *callRecorder
}

func (s *stubProvider) Initialize(map[string]string) error { return nil }

func (s *stubProvider) CreatePayment(_ context.Context, request provider.PaymentRequest) (*provider.PaymentResult, error) {
	if s.recorder != nil {
		s.recorder.record(s.name)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.fail {
		return &provider.PaymentResult{
			Success:  false,
			Status:   provider.StatusFailed,
			Error:    &provider.PaymentError{Code: provider.ErrCodePaymentFailed, Message: "declined", Provider: s.name},
			Provider: s.name,
		}, nil
	}
	return &provider.PaymentResult{
		Success:   true,
		PaymentID: "pay_" + s.name,
		Status:    provider.StatusCompleted,
		Amount:    request.Amount,
		Currency:  request.Currency,
	}, nil
}

func (s *stubProvider) CancelPayment(_ context.Context, paymentID string) (*provider.PaymentResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &provider.PaymentResult{Success: true, PaymentID: paymentID, Status: provider.StatusCancelled}, nil
}

func (s *stubProvider) GetPaymentStatus(_ context.Context, paymentID string) (*provider.PaymentResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &provider.PaymentResult{Success: true, PaymentID: paymentID, Status: provider.StatusCompleted}, nil
}

func (s *stubProvider) CreateSubscription(_ context.Context, request provider.SubscriptionRequest) (*provider.SubscriptionResult, error) {
	if s.recorder != nil {
		s.recorder.record(s.name)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.fail {
		return &provider.SubscriptionResult{
			Success: false,
			Status:  provider.StatusFailed,
			Error:   &provider.PaymentError{Code: provider.ErrCodeSubscriptionFailed, Message: "declined", Provider: s.name},
		}, nil
	}
	return &provider.SubscriptionResult{Success: true, SubscriptionID: "sub_" + s.name, Status: provider.StatusCompleted}, nil
}

func (s *stubProvider) CancelSubscription(_ context.Context, subscriptionID string) (*provider.SubscriptionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &provider.SubscriptionResult{Success: true, SubscriptionID: subscriptionID, Status: provider.StatusCancelled}, nil
}

func (s *stubProvider) SignatureScheme() provider.WebhookSignatureScheme {
	return provider.SchemeHMACPlain
}

func (s *stubProvider) SignatureHeader() string { return "X-Test-Signature" }

func (s *stubProvider) MapEventType(string) (string, bool) { return "", false }

func (s *stubProvider) ParseWebhook([]byte) (*provider.WebhookEventData, error) {
	return nil, fmt.Errorf("not supported")
}

// newTestRegistry configures a fresh registry with the given stubs
func newTestRegistry(stubs ...*stubProvider) *provider.Registry {
	registry := provider.NewRegistry()
	for _, stub := range stubs {
		stub := stub
		registry.Register(stub.name, func() provider.PaymentProvider { return stub })
		if err := registry.Configure(stub.name, map[string]string{"apiKey": "test"}); err != nil {
			panic(err)
		}
	}
	return registry
}

func setHealth(store *HealthStore, name string, status HealthStatus) {
	store.Set(ProviderHealth{
		Provider:    name,
		Status:      status,
		SuccessRate: 0.99,
		LastChecked: time.Now(),
	})
}
