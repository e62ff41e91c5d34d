package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paybridge/paybridge/provider"
)

// testAdapter is a minimal PaymentProvider used to drive the pipeline in
// tests. Payments are not exercised here.
type testAdapter struct {
	scheme provider.WebhookSignatureScheme
}

type testPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	PaymentID string `json:"payment_id"`
}

func (a *testAdapter) Initialize(map[string]string) error { return nil }

func (a *testAdapter) CreatePayment(context.Context, provider.PaymentRequest) (*provider.PaymentResult, error) {
	return nil, fmt.Errorf("not supported")
}

func (a *testAdapter) CancelPayment(context.Context, string) (*provider.PaymentResult, error) {
	return nil, fmt.Errorf("not supported")
}

func (a *testAdapter) GetPaymentStatus(context.Context, string) (*provider.PaymentResult, error) {
	return nil, fmt.Errorf("not supported")
}

func (a *testAdapter) CreateSubscription(context.Context, provider.SubscriptionRequest) (*provider.SubscriptionResult, error) {
	return nil, fmt.Errorf("not supported")
}

func (a *testAdapter) CancelSubscription(context.Context, string) (*provider.SubscriptionResult, error) {
	return nil, fmt.Errorf("not supported")
}

func (a *testAdapter) SignatureScheme() provider.WebhookSignatureScheme { return a.scheme }

func (a *testAdapter) SignatureHeader() string { return "X-Test-Signature" }

func (a *testAdapter) MapEventType(nativeType string) (string, bool) {
	switch nativeType {
	case "payment.completed":
		return provider.EventPaymentSucceeded, true
	case "payment.declined":
		return provider.EventPaymentFailed, true
	default:
		return "", false
	}
}

func (a *testAdapter) ParseWebhook(body []byte) (*provider.WebhookEventData, error) {
	var payload testPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("missing event id")
	}

	return &provider.WebhookEventData{
		EventID:    payload.ID,
		NativeType: payload.Type,
		Timestamp:  time.Unix(payload.Timestamp, 0),
		PaymentID:  payload.PaymentID,
	}, nil
}

// newTestAdapterRegistry configures a fresh registry with one test adapter
func newTestAdapterRegistry(name string, scheme provider.WebhookSignatureScheme) *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register(name, func() provider.PaymentProvider { return &testAdapter{scheme: scheme} })
	if err := registry.Configure(name, map[string]string{}); err != nil {
		panic(err)
	}
	return registry
}

func testBody(id, nativeType string) []byte {
	body, _ := json.Marshal(testPayload{
		ID:        id,
		Type:      nativeType,
		Timestamp: time.Now().Unix(),
		PaymentID: "pay_123",
	})
	return body
}
