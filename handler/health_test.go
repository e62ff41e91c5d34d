package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/paybridge/gateway"
	"github.com/paybridge/paybridge/provider"
)

func TestProvidersHealthTable(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register("stripe", func() provider.PaymentProvider { return &webhookTestAdapter{} })
	registry.Register("adyen", func() provider.PaymentProvider { return &webhookTestAdapter{} })
	require.NoError(t, registry.Configure("stripe", map[string]string{}))
	require.NoError(t, registry.Configure("adyen", map[string]string{}))

	store := gateway.NewHealthStore()
	store.Set(gateway.ProviderHealth{
		Provider:     "stripe",
		Status:       gateway.HealthHealthy,
		SuccessRate:  0.99,
		ResponseTime: 40 * time.Millisecond,
		LastChecked:  time.Now(),
	})

	h := NewHealthHandler(registry, store)

	rec := httptest.NewRecorder()
	h.Providers(rec, httptest.NewRequest(http.MethodGet, "/health/providers", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Provider string `json:"provider"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)

	// Sorted by name; adyen has no probe record yet
	assert.Equal(t, "adyen", resp.Data[0].Provider)
	assert.Equal(t, "unknown", resp.Data[0].Status)
	assert.Equal(t, "stripe", resp.Data[1].Provider)
	assert.Equal(t, "healthy", resp.Data[1].Status)
}

func TestLiveness(t *testing.T) {
	registry := provider.NewRegistry()
	h := NewHealthHandler(registry, gateway.NewHealthStore())

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
