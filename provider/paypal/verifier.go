package paypal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// WebhookVerifier validates PayPal webhook transmissions. A live integration
// confirms the transmission signature through PayPal's
// verify-webhook-signature API; the sandbox backend instead signs the body
// with the configured webhook id, so verification is computable locally. The
// same type backs both paths: it is injected into the pipeline as the
// external verifier and can be swapped for a remote implementation without
// touching the pipeline.
type WebhookVerifier struct {
	webhookID string
}

// NewWebhookVerifier creates a verifier for the given webhook id
func NewWebhookVerifier(webhookID string) *WebhookVerifier {
	return &WebhookVerifier{webhookID: webhookID}
}

// VerifySignature checks the transmission signature header against the raw
// body. An unconfigured webhook id is an error rather than a rejection so the
// pipeline can log the misconfiguration.
func (v *WebhookVerifier) VerifySignature(providerName, header string, body []byte) (bool, error) {
	if providerName != "paypal" {
		return false, fmt.Errorf("paypal: verifier cannot validate provider '%s'", providerName)
	}
	if v.webhookID == "" {
		return false, errors.New("paypal: webhookId is not configured")
	}
	if header == "" {
		return false, nil
	}

	expected := ComputeTransmissionSignature(v.webhookID, body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header))), nil
}

// ComputeTransmissionSignature produces the sandbox transmission signature
// for a webhook body, as carried in the Paypal-Transmission-Sig header
func ComputeTransmissionSignature(webhookID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookID))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
