package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/infra/opensearch"
)

// Named outbound gateway events
const (
	EventPaymentCreated        = "payment.created"
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentFailed         = "payment.failed"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventWebhookProcessed      = "webhook.processed"
	EventProviderSwitched      = "provider.switched"
	EventProviderHealthChanged = "provider.health_changed"
)

// Event is a named gateway event with a structured payload
type Event struct {
	Name      string         `json:"name"`
	Provider  string         `json:"provider,omitempty"`
	PaymentID string         `json:"paymentId,omitempty"`
	Amount    int64          `json:"amount,omitempty"`
	Currency  string         `json:"currency,omitempty"`
	Status    string         `json:"status,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Collector receives outbound gateway events. Implementations must not block
// the payment path.
type Collector interface {
	Record(ctx context.Context, event Event)
}

// NopCollector discards all events
type NopCollector struct{}

// Record implements Collector
func (NopCollector) Record(context.Context, Event) {}

// LogCollector writes events to the system logger and, when configured, to
// OpenSearch.
type LogCollector struct {
	osLogger *opensearch.Logger
}

// NewLogCollector creates a collector backed by the system logger and an
// optional OpenSearch logger
func NewLogCollector(osLogger *opensearch.Logger) *LogCollector {
	return &LogCollector{osLogger: osLogger}
}

// Record implements Collector
func (c *LogCollector) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	logger.Info("gateway event: "+event.Name, logger.LogContext{
		Provider: event.Provider,
		Fields: map[string]any{
			"payment_id": event.PaymentID,
			"amount":     event.Amount,
			"currency":   event.Currency,
			"status":     event.Status,
		},
	})

	if c.osLogger == nil {
		return
	}

	entry := opensearch.GatewayEventLog{
		Timestamp: event.Timestamp,
		Event:     event.Name,
		Provider:  event.Provider,
		RequestID: uuid.New().String(),
		PaymentID: event.PaymentID,
		Amount:    event.Amount,
		Currency:  event.Currency,
		Status:    event.Status,
		Fields:    event.Fields,
	}

	go func() {
		indexCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.osLogger.LogGatewayEvent(indexCtx, entry); err != nil {
			logger.Warn("Failed to index gateway event", logger.LogContext{
				Provider: event.Provider,
				Fields:   map[string]any{"error": err.Error()},
			})
		}
	}()
}
