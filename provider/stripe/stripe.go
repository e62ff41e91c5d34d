package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/paybridge/paybridge/provider"
)

const (
	signatureHeader = "Stripe-Signature"

	defaultCurrency = "usd"
)

// statusMap translates Stripe payment intent statuses into the unified vocabulary
var statusMap = map[stripeapi.PaymentIntentStatus]provider.PaymentStatus{
	stripeapi.PaymentIntentStatusRequiresPaymentMethod: provider.StatusPending,
	stripeapi.PaymentIntentStatusRequiresConfirmation:  provider.StatusPending,
	stripeapi.PaymentIntentStatusRequiresAction:        provider.StatusPending,
	stripeapi.PaymentIntentStatusProcessing:            provider.StatusProcessing,
	stripeapi.PaymentIntentStatusRequiresCapture:       provider.StatusProcessing,
	stripeapi.PaymentIntentStatusCanceled:              provider.StatusCancelled,
	stripeapi.PaymentIntentStatusSucceeded:             provider.StatusCompleted,
}

// eventTypeMap translates Stripe webhook event types into the unified vocabulary
var eventTypeMap = map[string]string{
	string(stripeapi.EventTypePaymentIntentSucceeded):     provider.EventPaymentSucceeded,
	string(stripeapi.EventTypePaymentIntentPaymentFailed): provider.EventPaymentFailed,
	string(stripeapi.EventTypeChargeRefunded):             provider.EventPaymentRefunded,
	string(stripeapi.EventTypeCustomerSubscriptionCreated): provider.EventSubscriptionCreated,
	string(stripeapi.EventTypeCustomerSubscriptionDeleted): provider.EventSubscriptionCancelled,
}

// Provider implements provider.PaymentProvider against a Stripe-shaped sandbox.
// The real Stripe HTTP client lives outside this core; the adapter keeps the
// wire vocabulary and an in-memory intent store so the gateway is runnable and
// testable without network access.
type Provider struct {
	secretKey     string
	webhookSecret string

	mu      sync.RWMutex
	intents map[string]*intentRecord

	// FailNext forces the next CreatePayment to fail, used to exercise failover
	FailNext bool
}

type intentRecord struct {
	ID       string
	Amount   int64
	Currency string
	Status   stripeapi.PaymentIntentStatus
	Created  time.Time
}

// NewProvider creates a new Stripe payment provider
func NewProvider() provider.PaymentProvider {
	return &Provider{
		intents: make(map[string]*intentRecord),
	}
}

// Initialize sets up the provider with authentication configuration
func (p *Provider) Initialize(config map[string]string) error {
	secretKey, ok := config["secretKey"]
	if !ok || secretKey == "" {
		return errors.New("stripe: secretKey is required")
	}

	p.secretKey = secretKey
	p.webhookSecret = config["webhookSecret"]
	return nil
}

// CreatePayment creates a payment intent and maps the result into the unified shape
func (p *Provider) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.FailNext {
		p.FailNext = false
		p.mu.Unlock()
		return nil, errors.New("stripe: payment intent creation failed")
	}
	p.mu.Unlock()

	currency := strings.ToLower(request.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	record := &intentRecord{
		ID:       "pi_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24],
		Amount:   request.Amount,
		Currency: currency,
		Status:   stripeapi.PaymentIntentStatusSucceeded,
		Created:  time.Now(),
	}

	p.mu.Lock()
	p.intents[record.ID] = record
	p.mu.Unlock()

	return p.toResult(record), nil
}

// CancelPayment cancels a payment intent
func (p *Provider) CancelPayment(ctx context.Context, paymentID string) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	record, exists := p.intents[paymentID]
	if !exists {
		return nil, fmt.Errorf("stripe: no such payment intent: %s", paymentID)
	}

	record.Status = stripeapi.PaymentIntentStatusCanceled
	return p.toResult(record), nil
}

// GetPaymentStatus retrieves the current status of a payment intent
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	record, exists := p.intents[paymentID]
	if !exists {
		return nil, fmt.Errorf("stripe: no such payment intent: %s", paymentID)
	}

	return p.toResult(record), nil
}

// CreateSubscription starts a recurring billing agreement
func (p *Provider) CreateSubscription(ctx context.Context, request provider.SubscriptionRequest) (*provider.SubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)

	return &provider.SubscriptionResult{
		Success:            true,
		SubscriptionID:     "sub_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24],
		Provider:           "stripe",
		Status:             provider.StatusCompleted,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
	}, nil
}

// CancelSubscription ends a recurring billing agreement
func (p *Provider) CancelSubscription(ctx context.Context, subscriptionID string) (*provider.SubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &provider.SubscriptionResult{
		Success:        true,
		SubscriptionID: subscriptionID,
		Provider:       "stripe",
		Status:         provider.StatusCancelled,
	}, nil
}

// SignatureScheme reports the timestamped HMAC scheme used by Stripe webhooks
func (p *Provider) SignatureScheme() provider.WebhookSignatureScheme {
	return provider.SchemeHMACTimestamp
}

// SignatureHeader returns the webhook signature header name
func (p *Provider) SignatureHeader() string {
	return signatureHeader
}

// MapEventType translates a Stripe event type into the unified vocabulary
func (p *Provider) MapEventType(nativeType string) (string, bool) {
	unified, ok := eventTypeMap[nativeType]
	return unified, ok
}

// stripeEvent is the subset of the Stripe event envelope the pipeline needs
type stripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID       string `json:"id"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook extracts the event id, native type and declared timestamp from
// a raw Stripe webhook body
func (p *Provider) ParseWebhook(body []byte) (*provider.WebhookEventData, error) {
	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("stripe: failed to parse webhook body: %w", err)
	}

	if event.ID == "" {
		return nil, errors.New("stripe: webhook event has no id")
	}

	return &provider.WebhookEventData{
		EventID:    event.ID,
		NativeType: event.Type,
		Timestamp:  time.Unix(event.Created, 0),
		PaymentID:  event.Data.Object.ID,
		Amount:     event.Data.Object.Amount,
		Currency:   strings.ToUpper(event.Data.Object.Currency),
	}, nil
}

// toResult maps an intent record into the unified result shape
func (p *Provider) toResult(record *intentRecord) *provider.PaymentResult {
	status, ok := statusMap[record.Status]
	if !ok {
		status = provider.StatusPending
	}

	return &provider.PaymentResult{
		Success:   status != provider.StatusFailed,
		PaymentID: record.ID,
		Provider:  "stripe",
		Status:    status,
		Amount:    record.Amount,
		Currency:  strings.ToUpper(record.Currency),
		Raw: map[string]any{
			"id":       record.ID,
			"object":   "payment_intent",
			"status":   string(record.Status),
			"amount":   record.Amount,
			"currency": record.Currency,
			"created":  record.Created.Unix(),
		},
	}
}
