package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paybridge/paybridge/infra/response"
	"github.com/paybridge/paybridge/provider"
)

// PaymentServiceInterface defines the interface for payment operations
type PaymentServiceInterface interface {
	CreatePayment(ctx context.Context, request provider.PaymentRequest) *provider.PaymentResult
	CancelPayment(ctx context.Context, paymentID, providerName string) *provider.PaymentResult
	GetPaymentStatus(ctx context.Context, paymentID, providerName string) (*provider.PaymentResult, error)
	CreateSubscription(ctx context.Context, request provider.SubscriptionRequest) *provider.SubscriptionResult
	CancelSubscription(ctx context.Context, subscriptionID, providerName string) *provider.SubscriptionResult
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	paymentService PaymentServiceInterface
	validate       *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentServiceInterface, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validate,
	}
}

// CreatePayment handles payment creation requests
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req provider.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result := h.paymentService.CreatePayment(ctx, req)
	if !result.Success {
		response.Fail(w, statusForFailure(result.Error), "Payment not completed", result)
		return
	}

	response.Success(w, http.StatusOK, "Payment processed", result)
}

// CancelPayment handles payment cancellation requests
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	paymentID := chi.URLParam(r, "paymentID")
	providerName := r.URL.Query().Get("provider")

	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID")
		return
	}
	if providerName == "" {
		response.Error(w, http.StatusBadRequest, "Missing provider parameter")
		return
	}

	result := h.paymentService.CancelPayment(ctx, paymentID, providerName)
	if !result.Success {
		response.Fail(w, statusForFailure(result.Error), "Payment cancellation failed", result)
		return
	}

	response.Success(w, http.StatusOK, "Payment cancelled", result)
}

// GetPaymentStatus handles payment status requests. An unknown provider yields
// an empty body rather than an error.
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	paymentID := chi.URLParam(r, "paymentID")
	providerName := r.URL.Query().Get("provider")

	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID")
		return
	}

	result, err := h.paymentService.GetPaymentStatus(ctx, paymentID, providerName)
	if err != nil {
		response.Error(w, http.StatusBadGateway, "Failed to get payment status")
		return
	}

	response.Success(w, http.StatusOK, "Payment status retrieved", result)
}

// CreateSubscription handles recurring billing setup requests
func (h *PaymentHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req provider.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result := h.paymentService.CreateSubscription(ctx, req)
	if !result.Success {
		response.Fail(w, statusForFailure(result.Error), "Subscription not created", result)
		return
	}

	response.Success(w, http.StatusCreated, "Subscription created", result)
}

// CancelSubscription handles subscription cancellation requests
func (h *PaymentHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	subscriptionID := chi.URLParam(r, "subscriptionID")
	providerName := r.URL.Query().Get("provider")

	if subscriptionID == "" {
		response.Error(w, http.StatusBadRequest, "Missing subscription ID")
		return
	}
	if providerName == "" {
		response.Error(w, http.StatusBadRequest, "Missing provider parameter")
		return
	}

	result := h.paymentService.CancelSubscription(ctx, subscriptionID, providerName)
	if !result.Success {
		response.Fail(w, statusForFailure(result.Error), "Subscription cancellation failed", result)
		return
	}

	response.Success(w, http.StatusOK, "Subscription cancelled", result)
}

// statusForFailure maps a domain error code to an HTTP status. Failed results
// still carry a full result body so clients see the error code.
func statusForFailure(perr *provider.PaymentError) int {
	if perr == nil {
		return http.StatusBadGateway
	}

	switch perr.Code {
	case provider.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case provider.ErrCodeProviderNotFound:
		return http.StatusNotFound
	case provider.ErrCodeMaxRetriesExceeded:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
