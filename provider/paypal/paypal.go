package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/paybridge/provider"
)

const signatureHeader = "Paypal-Transmission-Sig"

var eventTypeMap = map[string]string{
	"PAYMENT.CAPTURE.COMPLETED":      provider.EventPaymentSucceeded,
	"PAYMENT.CAPTURE.DENIED":         provider.EventPaymentFailed,
	"PAYMENT.CAPTURE.REFUNDED":       provider.EventPaymentRefunded,
	"BILLING.SUBSCRIPTION.CREATED":   provider.EventSubscriptionCreated,
	"BILLING.SUBSCRIPTION.CANCELLED": provider.EventSubscriptionCancelled,
}

// Provider implements provider.PaymentProvider against a PayPal-shaped
// sandbox backend. PayPal validates webhook transmissions with an API round
// trip rather than a locally computable HMAC, so the adapter reports the
// external signature scheme and the pipeline delegates to a pluggable
// verifier.
type Provider struct {
	clientID     string
	clientSecret string
	webhookID    string

	mu       sync.RWMutex
	captures map[string]*captureRecord
}

type captureRecord struct {
	ID       string
	Amount   int64
	Currency string
	Status   provider.PaymentStatus
	Created  time.Time
}

// NewProvider creates a new PayPal payment provider
func NewProvider() provider.PaymentProvider {
	return &Provider{
		captures: make(map[string]*captureRecord),
	}
}

// Initialize sets up the provider with authentication configuration
func (p *Provider) Initialize(config map[string]string) error {
	clientID, ok := config["clientId"]
	if !ok || clientID == "" {
		return errors.New("paypal: clientId is required")
	}

	clientSecret, ok := config["clientSecret"]
	if !ok || clientSecret == "" {
		return errors.New("paypal: clientSecret is required")
	}

	p.clientID = clientID
	p.clientSecret = clientSecret
	p.webhookID = config["webhookId"]
	return nil
}

// CreatePayment submits a capture and returns the unified result
func (p *Provider) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := &captureRecord{
		ID:       strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:17],
		Amount:   request.Amount,
		Currency: strings.ToUpper(request.Currency),
		Status:   provider.StatusCompleted,
		Created:  time.Now(),
	}

	p.mu.Lock()
	p.captures[record.ID] = record
	p.mu.Unlock()

	return p.toResult(record), nil
}

// CancelPayment voids a capture
func (p *Provider) CancelPayment(ctx context.Context, paymentID string) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	record, exists := p.captures[paymentID]
	if !exists {
		return nil, fmt.Errorf("paypal: unknown capture id: %s", paymentID)
	}

	record.Status = provider.StatusCancelled
	return p.toResult(record), nil
}

// GetPaymentStatus retrieves the current status of a capture
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	record, exists := p.captures[paymentID]
	if !exists {
		return nil, fmt.Errorf("paypal: unknown capture id: %s", paymentID)
	}

	return p.toResult(record), nil
}

// CreateSubscription starts a billing agreement
func (p *Provider) CreateSubscription(ctx context.Context, request provider.SubscriptionRequest) (*provider.SubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)

	return &provider.SubscriptionResult{
		Success:            true,
		SubscriptionID:     "I-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:13],
		Provider:           "paypal",
		Status:             provider.StatusCompleted,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
	}, nil
}

// CancelSubscription ends a billing agreement
func (p *Provider) CancelSubscription(ctx context.Context, subscriptionID string) (*provider.SubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &provider.SubscriptionResult{
		Success:        true,
		SubscriptionID: subscriptionID,
		Provider:       "paypal",
		Status:         provider.StatusCancelled,
	}, nil
}

// SignatureScheme reports that PayPal transmissions are verified out of band
func (p *Provider) SignatureScheme() provider.WebhookSignatureScheme {
	return provider.SchemeExternal
}

// SignatureHeader returns the webhook signature header name
func (p *Provider) SignatureHeader() string {
	return signatureHeader
}

// MapEventType translates a PayPal event type into the unified vocabulary
func (p *Provider) MapEventType(nativeType string) (string, bool) {
	unified, ok := eventTypeMap[nativeType]
	return unified, ok
}

// paypalEvent is the subset of the PayPal event envelope the pipeline needs
type paypalEvent struct {
	ID         string `json:"id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Resource   struct {
		ID     string `json:"id"`
		Amount struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
	} `json:"resource"`
}

// ParseWebhook extracts the event id, native type and declared timestamp from
// a raw PayPal webhook body
func (p *Provider) ParseWebhook(body []byte) (*provider.WebhookEventData, error) {
	var event paypalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("paypal: failed to parse webhook body: %w", err)
	}

	if event.ID == "" {
		return nil, errors.New("paypal: webhook event has no id")
	}

	timestamp, err := time.Parse(time.RFC3339, event.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("paypal: invalid create_time: %w", err)
	}

	return &provider.WebhookEventData{
		EventID:    event.ID,
		NativeType: event.EventType,
		Timestamp:  timestamp,
		PaymentID:  event.Resource.ID,
		Amount:     minorUnits(event.Resource.Amount.Value),
		Currency:   event.Resource.Amount.CurrencyCode,
	}, nil
}

// minorUnits converts PayPal's decimal amount string into minor units
func minorUnits(value string) int64 {
	if value == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(amount * 100))
}

func (p *Provider) toResult(record *captureRecord) *provider.PaymentResult {
	return &provider.PaymentResult{
		Success:   record.Status != provider.StatusFailed,
		PaymentID: record.ID,
		Provider:  "paypal",
		Status:    record.Status,
		Amount:    record.Amount,
		Currency:  record.Currency,
		Raw: map[string]any{
			"id":     record.ID,
			"status": captureStatus(record.Status),
		},
	}
}

func captureStatus(status provider.PaymentStatus) string {
	switch status {
	case provider.StatusCompleted:
		return "COMPLETED"
	case provider.StatusCancelled:
		return "VOIDED"
	case provider.StatusFailed:
		return "DECLINED"
	default:
		return "PENDING"
	}
}
