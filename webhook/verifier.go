package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/paybridge/paybridge/provider"
)

// ExternalVerifier validates a webhook signature through a provider-hosted
// verification call, for providers whose scheme cannot be recomputed locally.
type ExternalVerifier interface {
	VerifySignature(providerName string, header string, body []byte) (bool, error)
}

// Verifier checks webhook signatures against the scheme each provider adapter
// declares. Timestamped signatures are additionally checked against a
// freshness tolerance.
type Verifier struct {
	secrets            map[string]string
	external           ExternalVerifier
	timestampTolerance time.Duration
	verifyTimestamp    bool
	clock              clockz.Clock
}

// VerifierOption customizes a Verifier
type VerifierOption func(*Verifier)

// WithExternalVerifier plugs in remote verification for SchemeExternal providers
func WithExternalVerifier(external ExternalVerifier) VerifierOption {
	return func(v *Verifier) {
		v.external = external
	}
}

// WithVerifierClock overrides the time source
func WithVerifierClock(clock clockz.Clock) VerifierOption {
	return func(v *Verifier) {
		v.clock = clock
	}
}

// NewVerifier creates a signature verifier. secrets maps provider name to the
// shared webhook secret. A zero tolerance with verifyTimestamp enabled rejects
// everything but same-second deliveries, so callers normally pass minutes.
func NewVerifier(secrets map[string]string, tolerance time.Duration, verifyTimestamp bool, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secrets:            secrets,
		timestampTolerance: tolerance,
		verifyTimestamp:    verifyTimestamp,
		clock:              clockz.RealClock,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify checks the signature header against the raw body for the given
// provider adapter. The returned outcome is OutcomeVerified, OutcomeExpired or
// OutcomeInvalidSignature; the error carries diagnostic detail for logging.
func (v *Verifier) Verify(adapter provider.PaymentProvider, providerName, header string, body []byte) (VerificationOutcome, error) {
	switch adapter.SignatureScheme() {
	case provider.SchemeHMACTimestamp:
		return v.verifyTimestamped(providerName, header, body)
	case provider.SchemeHMACPlain:
		return v.verifyPlain(providerName, header, body)
	case provider.SchemeExternal:
		return v.verifyExternal(providerName, header, body)
	default:
		return OutcomeInvalidSignature, fmt.Errorf("unknown signature scheme '%s'", adapter.SignatureScheme())
	}
}

// verifyTimestamped handles the "t=<unix>,v1=<hex>" header format where the
// signed payload is "<t>.<body>"
func (v *Verifier) verifyTimestamped(providerName, header string, body []byte) (VerificationOutcome, error) {
	secret, ok := v.secrets[providerName]
	if !ok || secret == "" {
		return OutcomeInvalidSignature, fmt.Errorf("no webhook secret configured for provider '%s'", providerName)
	}

	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return OutcomeInvalidSignature, err
	}

	if v.verifyTimestamp {
		drift := v.clock.Now().Sub(time.Unix(timestamp, 0))
		if drift < 0 {
			drift = -drift
		}
		if drift > v.timestampTolerance {
			return OutcomeExpired, fmt.Errorf("signature timestamp outside tolerance: drift %s exceeds %s", drift, v.timestampTolerance)
		}
	}

	payload := fmt.Sprintf("%d.%s", timestamp, body)
	if !v.matches(secret, []byte(payload), signature) {
		return OutcomeInvalidSignature, fmt.Errorf("signature mismatch for provider '%s'", providerName)
	}

	return OutcomeVerified, nil
}

func (v *Verifier) verifyPlain(providerName, header string, body []byte) (VerificationOutcome, error) {
	secret, ok := v.secrets[providerName]
	if !ok || secret == "" {
		return OutcomeInvalidSignature, fmt.Errorf("no webhook secret configured for provider '%s'", providerName)
	}

	if header == "" {
		return OutcomeInvalidSignature, fmt.Errorf("missing signature header for provider '%s'", providerName)
	}

	if !v.matches(secret, body, header) {
		return OutcomeInvalidSignature, fmt.Errorf("signature mismatch for provider '%s'", providerName)
	}

	return OutcomeVerified, nil
}

func (v *Verifier) verifyExternal(providerName, header string, body []byte) (VerificationOutcome, error) {
	if v.external == nil {
		return OutcomeInvalidSignature, fmt.Errorf("provider '%s' requires external verification but none is configured", providerName)
	}

	valid, err := v.external.VerifySignature(providerName, header, body)
	if err != nil {
		return OutcomeInvalidSignature, fmt.Errorf("external verification failed for provider '%s': %w", providerName, err)
	}
	if !valid {
		return OutcomeInvalidSignature, fmt.Errorf("external verifier rejected signature for provider '%s'", providerName)
	}

	return OutcomeVerified, nil
}

func (v *Verifier) matches(secret string, payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// parseSignatureHeader splits "t=1700000000,v1=abcdef..." into its parts.
// Unknown elements are ignored so providers can append fields.
func parseSignatureHeader(header string) (int64, string, error) {
	var timestamp int64
	var signature string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("invalid timestamp in signature header: %w", err)
			}
			timestamp = ts
		case "v1":
			signature = value
		}
	}

	if timestamp == 0 || signature == "" {
		return 0, "", fmt.Errorf("signature header missing 't' or 'v1' element")
	}

	return timestamp, signature, nil
}

// ComputeSignatureHeader produces a timestamped signature header for the given
// body, in the same format verifyTimestamped accepts. Used by sandbox tooling
// and tests.
func ComputeSignatureHeader(secret string, body []byte, at time.Time) string {
	ts := at.Unix()
	payload := fmt.Sprintf("%d.%s", ts, body)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))

	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// ComputePlainSignature produces a plain HMAC-SHA256 hex signature over body
func ComputePlainSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}
