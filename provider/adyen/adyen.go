package adyen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/paybridge/provider"
)

const signatureHeader = "X-Adyen-Hmac-Signature"

// Adyen notification event codes
const (
	eventAuthorisation     = "AUTHORISATION"
	eventCapture           = "CAPTURE"
	eventCaptureFailed     = "CAPTURE_FAILED"
	eventRefund            = "REFUND"
	eventCancellation      = "CANCELLATION"
	eventRecurringContract = "RECURRING_CONTRACT"
	eventContractDisabled  = "RECURRING_CONTRACT_DISABLED"
)

var eventTypeMap = map[string]string{
	eventAuthorisation:     provider.EventPaymentSucceeded,
	eventCapture:           provider.EventPaymentSucceeded,
	eventCaptureFailed:     provider.EventPaymentFailed,
	eventRefund:            provider.EventPaymentRefunded,
	eventCancellation:      provider.EventPaymentFailed,
	eventRecurringContract: provider.EventSubscriptionCreated,
	eventContractDisabled:  provider.EventSubscriptionCancelled,
}

// Provider implements provider.PaymentProvider against an Adyen-shaped
// sandbox backend. Webhook notifications are signed with a plain HMAC-SHA256
// over the raw body.
type Provider struct {
	apiKey          string
	merchantAccount string
	hmacKey         string

	mu       sync.RWMutex
	payments map[string]*paymentRecord
}

type paymentRecord struct {
	Reference string
	Amount    int64
	Currency  string
	Status    provider.PaymentStatus
	Created   time.Time
}

// NewProvider creates a new Adyen payment provider
func NewProvider() provider.PaymentProvider {
	return &Provider{
		payments: make(map[string]*paymentRecord),
	}
}

// Initialize sets up the provider with authentication configuration
func (p *Provider) Initialize(config map[string]string) error {
	apiKey, ok := config["apiKey"]
	if !ok || apiKey == "" {
		return errors.New("adyen: apiKey is required")
	}

	merchantAccount, ok := config["merchantAccount"]
	if !ok || merchantAccount == "" {
		return errors.New("adyen: merchantAccount is required")
	}

	p.apiKey = apiKey
	p.merchantAccount = merchantAccount
	p.hmacKey = config["hmacKey"]
	return nil
}

// CreatePayment submits a payment and returns the unified result
func (p *Provider) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := &paymentRecord{
		Reference: "psp_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16],
		Amount:    request.Amount,
		Currency:  strings.ToUpper(request.Currency),
		Status:    provider.StatusCompleted,
		Created:   time.Now(),
	}

	p.mu.Lock()
	p.payments[record.Reference] = record
	p.mu.Unlock()

	return p.toResult(record), nil
}

// CancelPayment cancels a payment
func (p *Provider) CancelPayment(ctx context.Context, paymentID string) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	record, exists := p.payments[paymentID]
	if !exists {
		return nil, fmt.Errorf("adyen: unknown psp reference: %s", paymentID)
	}

	record.Status = provider.StatusCancelled
	return p.toResult(record), nil
}

// GetPaymentStatus retrieves the current status of a payment
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	record, exists := p.payments[paymentID]
	if !exists {
		return nil, fmt.Errorf("adyen: unknown psp reference: %s", paymentID)
	}

	return p.toResult(record), nil
}

// CreateSubscription starts a recurring contract
func (p *Provider) CreateSubscription(ctx context.Context, request provider.SubscriptionRequest) (*provider.SubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)

	return &provider.SubscriptionResult{
		Success:            true,
		SubscriptionID:     "rec_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16],
		Provider:           "adyen",
		Status:             provider.StatusCompleted,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
	}, nil
}

// CancelSubscription disables a recurring contract
func (p *Provider) CancelSubscription(ctx context.Context, subscriptionID string) (*provider.SubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &provider.SubscriptionResult{
		Success:        true,
		SubscriptionID: subscriptionID,
		Provider:       "adyen",
		Status:         provider.StatusCancelled,
	}, nil
}

// SignatureScheme reports the plain HMAC scheme used by Adyen notifications
func (p *Provider) SignatureScheme() provider.WebhookSignatureScheme {
	return provider.SchemeHMACPlain
}

// SignatureHeader returns the webhook signature header name
func (p *Provider) SignatureHeader() string {
	return signatureHeader
}

// MapEventType translates an Adyen event code into the unified vocabulary
func (p *Provider) MapEventType(nativeType string) (string, bool) {
	unified, ok := eventTypeMap[nativeType]
	return unified, ok
}

// adyenNotification is the subset of the notification envelope the pipeline needs
type adyenNotification struct {
	PspReference string `json:"pspReference"`
	EventCode    string `json:"eventCode"`
	EventDate    string `json:"eventDate"`
	Amount       struct {
		Value    int64  `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
}

// ParseWebhook extracts the event id, native type and declared timestamp from
// a raw Adyen notification body
func (p *Provider) ParseWebhook(body []byte) (*provider.WebhookEventData, error) {
	var notification adyenNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, fmt.Errorf("adyen: failed to parse notification body: %w", err)
	}

	if notification.PspReference == "" {
		return nil, errors.New("adyen: notification has no pspReference")
	}

	timestamp, err := time.Parse(time.RFC3339, notification.EventDate)
	if err != nil {
		return nil, fmt.Errorf("adyen: invalid eventDate: %w", err)
	}

	return &provider.WebhookEventData{
		EventID:    notification.PspReference,
		NativeType: notification.EventCode,
		Timestamp:  timestamp,
		PaymentID:  notification.PspReference,
		Amount:     notification.Amount.Value,
		Currency:   notification.Amount.Currency,
	}, nil
}

func (p *Provider) toResult(record *paymentRecord) *provider.PaymentResult {
	return &provider.PaymentResult{
		Success:   record.Status != provider.StatusFailed,
		PaymentID: record.Reference,
		Provider:  "adyen",
		Status:    record.Status,
		Amount:    record.Amount,
		Currency:  record.Currency,
		Raw: map[string]any{
			"pspReference":    record.Reference,
			"merchantAccount": p.merchantAccount,
			"resultCode":      resultCode(record.Status),
		},
	}
}

func resultCode(status provider.PaymentStatus) string {
	switch status {
	case provider.StatusCompleted:
		return "Authorised"
	case provider.StatusCancelled:
		return "Cancelled"
	case provider.StatusFailed:
		return "Refused"
	default:
		return "Received"
	}
}
