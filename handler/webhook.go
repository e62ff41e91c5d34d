package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paybridge/paybridge/infra/middle"
	"github.com/paybridge/paybridge/infra/response"
	"github.com/paybridge/paybridge/provider"
	"github.com/paybridge/paybridge/webhook"
)

const maxWebhookBodySize = 1 << 20 // 1MB

// WebhookHandler receives provider webhook deliveries, runs them through the
// verification pipeline and hands verified events to the dispatcher
type WebhookHandler struct {
	registry   *provider.Registry
	pipeline   *webhook.Pipeline
	dispatcher *webhook.Dispatcher
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(registry *provider.Registry, pipeline *webhook.Pipeline, dispatcher *webhook.Dispatcher) *WebhookHandler {
	return &WebhookHandler{
		registry:   registry,
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}
}

// Receive handles POST /v1/webhooks/{provider}. Rejections never echo
// verification internals back to the caller; details go to the logs only.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	sourceIP := middle.GetClientIP(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Unable to read request body")
		return
	}

	result := h.pipeline.Process(r.Context(), providerName, sourceIP, h.signatureHeader(r, providerName), body)

	if !result.Verified() {
		response.Error(w, statusForOutcome(result), "Webhook rejected")
		return
	}

	processing := h.dispatcher.Dispatch(r.Context(), result.Event)

	response.Success(w, http.StatusOK, "Webhook accepted", processing)
}

// signatureHeader pulls the signature from the header the provider adapter
// declares, falling back to a generic one for unregistered providers
func (h *WebhookHandler) signatureHeader(r *http.Request, providerName string) string {
	if adapter, err := h.registry.Get(providerName); err == nil {
		return r.Header.Get(adapter.SignatureHeader())
	}

	return r.Header.Get("X-Webhook-Signature")
}

// Stats handles GET /v1/webhooks/stats
func (h *WebhookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Webhook statistics", h.dispatcher.Snapshot())
}

func statusForOutcome(result *webhook.Result) int {
	switch result.Outcome {
	case webhook.OutcomeInvalidSignature, webhook.OutcomeExpired:
		return http.StatusUnauthorized
	case webhook.OutcomeReplay:
		return http.StatusConflict
	case webhook.OutcomeFailed:
		switch result.Detail {
		case webhook.DetailRateLimitExceeded:
			return http.StatusTooManyRequests
		case webhook.DetailIPNotAllowed:
			return http.StatusForbidden
		case webhook.DetailProviderNotFound:
			return http.StatusNotFound
		default:
			return http.StatusBadRequest
		}
	default:
		return http.StatusBadRequest
	}
}
