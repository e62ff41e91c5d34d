package provider

import (
	"context"
	"fmt"
	"time"
)

// PaymentStatus represents the unified status of a payment across all providers
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
	StatusRefunded   PaymentStatus = "refunded"
)

// Error codes surfaced to callers through PaymentError
const (
	ErrCodeProviderNotFound   = "PROVIDER_NOT_FOUND"
	ErrCodeMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
	ErrCodePaymentFailed      = "PAYMENT_FAILED"
	ErrCodeSubscriptionFailed = "SUBSCRIPTION_FAILED"
	ErrCodeCancelFailed       = "CANCEL_FAILED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
)

// Address represents a physical address
type Address struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Line1   string `json:"line1,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Customer represents the buyer information
type Customer struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email" validate:"required,email"`
	Address *Address `json:"address,omitempty"`
}

// PaymentRequest contains all information required to create a payment.
// Amount is in the smallest currency unit (cents for USD).
// A request is treated as immutable once submitted to the gateway.
type PaymentRequest struct {
	Amount        int64             `json:"amount" validate:"required,minor_units"`
	Currency      string            `json:"currency" validate:"required,currency_code"`
	Customer      *Customer         `json:"customer,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	ReturnURL     string            `json:"returnUrl,omitempty"`
	CancelURL     string            `json:"cancelUrl,omitempty"`
}

// PaymentError carries the structured error attached to an unsuccessful result
type PaymentError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Err      error  `json:"-"`
}

func (e *PaymentError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (provider: %s)", e.Code, e.Message, e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// PaymentResult is the unified result shape returned by the gateway
type PaymentResult struct {
	Success   bool          `json:"success"`
	PaymentID string        `json:"paymentId,omitempty"`
	Provider  string        `json:"provider,omitempty"`
	Status    PaymentStatus `json:"status"`
	Amount    int64         `json:"amount,omitempty"`
	Currency  string        `json:"currency,omitempty"`
	Raw       any           `json:"raw,omitempty"`
	Error     *PaymentError `json:"error,omitempty"`
}

// SubscriptionRequest contains the recurring billing primitives for a new subscription
type SubscriptionRequest struct {
	PlanID   string            `json:"planId" validate:"required"`
	Amount   int64             `json:"amount" validate:"required,minor_units"`
	Currency string            `json:"currency" validate:"required,currency_code"`
	Interval string            `json:"interval,omitempty"`
	Customer *Customer         `json:"customer,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SubscriptionResult is the unified subscription result shape
type SubscriptionResult struct {
	Success            bool          `json:"success"`
	SubscriptionID     string        `json:"subscriptionId,omitempty"`
	Provider           string        `json:"provider,omitempty"`
	Status             PaymentStatus `json:"status"`
	CurrentPeriodStart *time.Time    `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time    `json:"currentPeriodEnd,omitempty"`
	Raw                any           `json:"raw,omitempty"`
	Error              *PaymentError `json:"error,omitempty"`
}

// WebhookSignatureScheme identifies how a provider signs webhook payloads
type WebhookSignatureScheme string

const (
	// SchemeHMACTimestamp signs "<t>.<body>" and carries "t=<unix>,v1=<hex>" in the header
	SchemeHMACTimestamp WebhookSignatureScheme = "hmac_timestamp"
	// SchemeHMACPlain signs the raw body and carries the hex digest in the header
	SchemeHMACPlain WebhookSignatureScheme = "hmac_plain"
	// SchemeExternal requires an out-of-band call to the provider to validate a transmission id
	SchemeExternal WebhookSignatureScheme = "external"
)

// WebhookEventData is the provider-native event extraction handed to the
// verification pipeline. The provider-assigned event id doubles as the
// idempotency and replay key.
type WebhookEventData struct {
	EventID    string    `json:"eventId"`
	NativeType string    `json:"nativeType"`
	Timestamp  time.Time `json:"timestamp"`
	PaymentID  string    `json:"paymentId,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
}

// PaymentProvider defines the capability interface every payment adapter implements
type PaymentProvider interface {
	// Initialize sets up the provider with credentials and configuration
	Initialize(config map[string]string) error

	// CreatePayment submits a payment and returns the provider-native result
	// mapped into the unified shape
	CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentResult, error)

	// CancelPayment cancels a previously created payment
	CancelPayment(ctx context.Context, paymentID string) (*PaymentResult, error)

	// GetPaymentStatus retrieves the current status of a payment
	GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentResult, error)

	// CreateSubscription starts a recurring billing agreement
	CreateSubscription(ctx context.Context, request SubscriptionRequest) (*SubscriptionResult, error)

	// CancelSubscription ends a recurring billing agreement
	CancelSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResult, error)

	// SignatureScheme reports how this provider signs webhook payloads
	SignatureScheme() WebhookSignatureScheme

	// SignatureHeader returns the HTTP header carrying the webhook signature
	SignatureHeader() string

	// MapEventType translates a provider-native webhook event type into the
	// unified vocabulary; ok is false when the native type has no mapping
	MapEventType(nativeType string) (string, bool)

	// ParseWebhook extracts the event id, native type and declared timestamp
	// from a raw webhook body
	ParseWebhook(body []byte) (*WebhookEventData, error)
}

// ProviderFactory is a function type that creates a new PaymentProvider
type ProviderFactory func() PaymentProvider

// Unified webhook event type vocabulary
const (
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentFailed         = "payment.failed"
	EventPaymentRefunded       = "payment.refunded"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
	// EventUnknown is the terminal bucket for native types with no mapping;
	// unknown events are logged but never acted upon.
	EventUnknown = "unknown"
)
