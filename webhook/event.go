// Package webhook implements inbound webhook verification and dispatch: a
// fixed-order pipeline (rate limit, IP allowlist, parse, signature, replay)
// followed by per-event-type action fan-out.
package webhook

import (
	"time"

	"github.com/paybridge/paybridge/provider"
)

// VerificationOutcome is the terminal classification of a pipeline run
type VerificationOutcome string

const (
	OutcomeVerified         VerificationOutcome = "verified"
	OutcomeInvalidSignature VerificationOutcome = "invalid_signature"
	OutcomeExpired          VerificationOutcome = "expired"
	OutcomeReplay           VerificationOutcome = "replay"
	OutcomeFailed           VerificationOutcome = "failed"
)

// Failure details carried alongside OutcomeFailed
const (
	DetailRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	DetailIPNotAllowed      = "IP_NOT_ALLOWED"
	DetailParseFailed       = "PARSE_FAILED"
	DetailProviderNotFound  = "PROVIDER_NOT_FOUND"
)

// Event is a fully verified webhook ready for dispatch. EventType is one of
// the unified provider.Event* values; NativeType keeps the provider's own
// vocabulary for logging and debugging.
type Event struct {
	ID         string         `json:"id"`
	Provider   string         `json:"provider"`
	EventType  string         `json:"event_type"`
	NativeType string         `json:"native_type"`
	PaymentID  string         `json:"payment_id,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	Currency   string         `json:"currency,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Raw        []byte         `json:"-"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Result reports how far a webhook made it through the pipeline
type Result struct {
	Outcome  VerificationOutcome `json:"outcome"`
	Detail   string              `json:"detail,omitempty"`
	Event    *Event              `json:"event,omitempty"`
	Duration time.Duration       `json:"-"`
}

// Verified reports whether the webhook passed every pipeline stage
func (r *Result) Verified() bool {
	return r.Outcome == OutcomeVerified
}

func fromEventData(providerName string, data *provider.WebhookEventData, eventType string, raw []byte) *Event {
	return &Event{
		ID:         data.EventID,
		Provider:   providerName,
		EventType:  eventType,
		NativeType: data.NativeType,
		PaymentID:  data.PaymentID,
		Amount:     data.Amount,
		Currency:   data.Currency,
		Timestamp:  data.Timestamp,
		Raw:        raw,
	}
}
