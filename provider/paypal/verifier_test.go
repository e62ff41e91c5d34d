package paypal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	verifier := NewWebhookVerifier("wh_test")
	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	valid, err := verifier.VerifySignature("paypal", ComputeTransmissionSignature("wh_test", body), body)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	verifier := NewWebhookVerifier("wh_test")
	body := []byte(`{"id":"WH-1"}`)
	header := ComputeTransmissionSignature("wh_test", body)

	valid, err := verifier.VerifySignature("paypal", header, []byte(`{"id":"WH-2"}`))
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignatureRejectsWrongWebhookID(t *testing.T) {
	verifier := NewWebhookVerifier("wh_test")
	body := []byte(`{"id":"WH-1"}`)

	valid, err := verifier.VerifySignature("paypal", ComputeTransmissionSignature("wh_other", body), body)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignatureMissingHeader(t *testing.T) {
	verifier := NewWebhookVerifier("wh_test")

	valid, err := verifier.VerifySignature("paypal", "", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignatureUnconfigured(t *testing.T) {
	verifier := NewWebhookVerifier("")

	_, err := verifier.VerifySignature("paypal", "deadbeef", []byte(`{}`))
	assert.Error(t, err)
}

func TestVerifySignatureWrongProvider(t *testing.T) {
	verifier := NewWebhookVerifier("wh_test")

	_, err := verifier.VerifySignature("stripe", "deadbeef", []byte(`{}`))
	assert.Error(t, err)
}
