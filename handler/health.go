package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/paybridge/paybridge/gateway"
	"github.com/paybridge/paybridge/infra/response"
	"github.com/paybridge/paybridge/provider"
)

// HealthHandler exposes service liveness and the per-provider health table
type HealthHandler struct {
	registry  *provider.Registry
	health    *gateway.HealthStore
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *provider.Registry, health *gateway.HealthStore) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		health:    health,
		startedAt: time.Now(),
	}
}

// Liveness handles GET /health
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Service healthy", map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"providers": h.registry.Names(),
	})
}

// Providers handles GET /v1/health/providers. Providers that have not been
// probed yet are listed without health data rather than omitted.
func (h *HealthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	snapshot := h.health.Snapshot()

	type entry struct {
		Provider     string     `json:"provider"`
		Status       string     `json:"status"`
		SuccessRate  float64    `json:"success_rate,omitempty"`
		ResponseTime string     `json:"response_time,omitempty"`
		LastChecked  *time.Time `json:"last_checked,omitempty"`
		RecentErrors []string   `json:"recent_errors,omitempty"`
	}

	names := h.registry.Names()
	sort.Strings(names)

	entries := make([]entry, 0, len(names))
	for _, name := range names {
		e := entry{Provider: name, Status: "unknown"}
		if health, ok := snapshot[name]; ok {
			checked := health.LastChecked
			e.Status = string(health.Status)
			e.SuccessRate = health.SuccessRate
			e.ResponseTime = health.ResponseTime.String()
			e.LastChecked = &checked
			e.RecentErrors = health.RecentErrors
		}
		entries = append(entries, e)
	}

	response.Success(w, http.StatusOK, "Provider health", entries)
}
