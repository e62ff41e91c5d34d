package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/paybridge/paybridge/provider"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		successRate float64
		expected    HealthStatus
	}{
		{name: "above_healthy_threshold", successRate: 0.99, expected: HealthHealthy},
		{name: "just_above_healthy_threshold", successRate: 0.951, expected: HealthHealthy},
		{name: "exactly_healthy_threshold_is_degraded", successRate: 0.95, expected: HealthDegraded},
		{name: "above_degraded_threshold", successRate: 0.85, expected: HealthDegraded},
		{name: "exactly_degraded_threshold_is_down", successRate: 0.80, expected: HealthDown},
		{name: "low_rate_is_down", successRate: 0.50, expected: HealthDown},
		{name: "zero_rate_is_down", successRate: 0, expected: HealthDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.successRate))
		})
	}
}

// fixedProber returns a scripted probe result
type fixedProber struct {
	latency     time.Duration
	successRate float64
	err         error
}

func (p fixedProber) Probe(context.Context, string, provider.PaymentProvider) (time.Duration, float64, error) {
	return p.latency, p.successRate, p.err
}

func TestCheckAllClassifiesProviders(t *testing.T) {
	registry := newTestRegistry(&stubProvider{name: "stripe"})
	store := NewHealthStore()

	monitor := NewHealthMonitor(registry, store, nil, time.Minute,
		WithProber(fixedProber{latency: 50 * time.Millisecond, successRate: 0.99}))

	monitor.CheckAll(context.Background())

	health, ok := store.Get("stripe")
	require.True(t, ok)
	assert.Equal(t, HealthHealthy, health.Status)
	assert.InDelta(t, 0.99, health.SuccessRate, 0.001)
	assert.False(t, health.LastChecked.IsZero())
}

func TestCheckAllProbeErrorForcesDown(t *testing.T) {
	registry := newTestRegistry(&stubProvider{name: "stripe"})
	store := NewHealthStore()

	// Probe reports a good rate but fails; the failure must win
	monitor := NewHealthMonitor(registry, store, nil, time.Minute,
		WithProber(fixedProber{successRate: 0.99, err: errors.New("connection refused")}))

	monitor.CheckAll(context.Background())

	health, ok := store.Get("stripe")
	require.True(t, ok)
	assert.Equal(t, HealthDown, health.Status)
	assert.Zero(t, health.SuccessRate)
	require.NotEmpty(t, health.RecentErrors)
	assert.Contains(t, health.RecentErrors[0], "connection refused")
}

func TestCheckAllRecentErrorsBounded(t *testing.T) {
	registry := newTestRegistry(&stubProvider{name: "stripe"})
	store := NewHealthStore()

	monitor := NewHealthMonitor(registry, store, nil, time.Minute,
		WithProber(fixedProber{err: errors.New("timeout")}))

	for i := 0; i < 10; i++ {
		monitor.CheckAll(context.Background())
	}

	health, ok := store.Get("stripe")
	require.True(t, ok)
	assert.Len(t, health.RecentErrors, 5)
}

func TestCheckAllProbesOnInjectedClock(t *testing.T) {
	registry := newTestRegistry(&stubProvider{name: "stripe"})
	store := NewHealthStore()
	clock := clockz.NewFakeClockAt(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	monitor := NewHealthMonitor(registry, store, nil, time.Minute, WithClock(clock))

	monitor.CheckAll(context.Background())

	health, ok := store.Get("stripe")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), health.LastChecked)
	// The fake clock never advanced during the probe
	assert.Zero(t, health.ResponseTime)
	assert.Equal(t, HealthHealthy, health.Status)
}

func TestHealthStoreUnknownProvider(t *testing.T) {
	store := NewHealthStore()

	_, ok := store.Get("stripe")
	assert.False(t, ok, "unprobed provider has no health record")
	assert.Empty(t, store.Snapshot())
}

func TestMonitorStartStop(t *testing.T) {
	registry := newTestRegistry(&stubProvider{name: "stripe"})
	store := NewHealthStore()

	monitor := NewHealthMonitor(registry, store, nil, time.Hour,
		WithProber(fixedProber{latency: time.Millisecond, successRate: 0.99}))

	monitor.Start(context.Background())

	// Start probes synchronously before entering the loop
	_, ok := store.Get("stripe")
	assert.True(t, ok)

	monitor.Stop()
	monitor.Stop() // idempotent
}
