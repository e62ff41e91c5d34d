package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// GatewayEventLog represents a structured outbound gateway event
type GatewayEventLog struct {
	Timestamp        time.Time      `json:"timestamp"`
	Event            string         `json:"event"`
	Provider         string         `json:"provider,omitempty"`
	RequestID        string         `json:"request_id"`
	PaymentID        string         `json:"payment_id,omitempty"`
	Amount           int64          `json:"amount,omitempty"`
	Currency         string         `json:"currency,omitempty"`
	Status           string         `json:"status,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms,omitempty"`
	Error            *ErrorInfo     `json:"error,omitempty"`
	Fields           map[string]any `json:"fields,omitempty"`
}

// WebhookLog represents a structured webhook verification/processing entry
type WebhookLog struct {
	Timestamp        time.Time      `json:"timestamp"`
	Provider         string         `json:"provider"`
	EventID          string         `json:"event_id,omitempty"`
	EventType        string         `json:"event_type,omitempty"`
	Outcome          string         `json:"outcome"`
	SourceIP         string         `json:"source_ip,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	Error            *ErrorInfo     `json:"error,omitempty"`
	Fields           map[string]any `json:"fields,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch indexing for gateway events and webhook logs
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogGatewayEvent indexes an outbound gateway event
func (l *Logger) LogGatewayEvent(ctx context.Context, entry GatewayEventLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}

	return l.index(ctx, l.client.EventIndexName(), entry)
}

// LogWebhook indexes a webhook verification/processing entry
func (l *Logger) LogWebhook(ctx context.Context, entry WebhookLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	return l.index(ctx, l.client.WebhookIndexName(), entry)
}

// LogSystemEvent indexes a system log entry
func (l *Logger) LogSystemEvent(ctx context.Context, doc any) error {
	if !l.client.IsEnabled() {
		return nil
	}

	return l.index(ctx, l.client.SystemIndexName(), doc)
}

// index marshals a document and writes it to the given index
func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}
