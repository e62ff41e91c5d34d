package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/paybridge/paybridge/infra/analytics"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/provider"
)

// HealthStatus classifies a provider's availability
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)

// Classification thresholds on the synthetic success rate
const (
	healthyThreshold  = 0.95
	degradedThreshold = 0.80
)

// ProviderHealth is the per-provider health record. It is replaced atomically
// per probe cycle and only ever written by the HealthMonitor.
type ProviderHealth struct {
	Provider     string        `json:"provider"`
	Status       HealthStatus  `json:"status"`
	ResponseTime time.Duration `json:"responseTime"`
	SuccessRate  float64       `json:"successRate"`
	LastChecked  time.Time     `json:"lastChecked"`
	RecentErrors []string      `json:"recentErrors,omitempty"`
}

// HealthStore holds the health table shared between the monitor (writer) and
// the routing/failover path (readers).
type HealthStore struct {
	mu      sync.RWMutex
	entries map[string]ProviderHealth
}

// NewHealthStore creates an empty health store
func NewHealthStore() *HealthStore {
	return &HealthStore{
		entries: make(map[string]ProviderHealth),
	}
}

// Get returns the health record for a provider. A missing record means the
// provider has not been probed yet: it is not selectable for load balancing
// but remains selectable as an explicit or default route.
func (s *HealthStore) Get(name string) (ProviderHealth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health, exists := s.entries[name]
	return health, exists
}

// Set replaces a provider's health record atomically
func (s *HealthStore) Set(health ProviderHealth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[health.Provider] = health
}

// Snapshot returns a copy of the full health table
func (s *HealthStore) Snapshot() map[string]ProviderHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]ProviderHealth, len(s.entries))
	for name, health := range s.entries {
		snapshot[name] = health
	}
	return snapshot
}

// Prober issues a lightweight probe against a provider and reports the
// observed latency and synthetic success rate
type Prober interface {
	Probe(ctx context.Context, name string, p provider.PaymentProvider) (time.Duration, float64, error)
}

// adapterProber probes a provider through its status endpoint. A domain-level
// "unknown payment" reply still proves the provider is responding; only
// transport or context failures count as probe errors.
type adapterProber struct {
	clock clockz.Clock
}

func (a adapterProber) Probe(ctx context.Context, name string, p provider.PaymentProvider) (time.Duration, float64, error) {
	start := a.clock.Now()
	_, err := p.GetPaymentStatus(ctx, "healthcheck")
	latency := a.clock.Now().Sub(start)

	if ctx.Err() != nil {
		return latency, 0, ctx.Err()
	}
	_ = err // domain errors are a live signal

	switch {
	case latency < 200*time.Millisecond:
		return latency, 0.99, nil
	case latency < time.Second:
		return latency, 0.90, nil
	default:
		return latency, 0.70, nil
	}
}

// HealthMonitor periodically probes every configured provider and classifies
// it healthy, degraded or down
type HealthMonitor struct {
	registry  *provider.Registry
	store     *HealthStore
	collector analytics.Collector
	prober    Prober
	clock     clockz.Clock
	interval  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// HealthMonitorOption customizes a HealthMonitor
type HealthMonitorOption func(*HealthMonitor)

// WithProber overrides the default probe implementation
func WithProber(p Prober) HealthMonitorOption {
	return func(m *HealthMonitor) { m.prober = p }
}

// WithClock overrides the clock, for deterministic tests
func WithClock(c clockz.Clock) HealthMonitorOption {
	return func(m *HealthMonitor) { m.clock = c }
}

// NewHealthMonitor creates a health monitor probing the given registry on a
// fixed interval
func NewHealthMonitor(registry *provider.Registry, store *HealthStore, collector analytics.Collector, interval time.Duration, opts ...HealthMonitorOption) *HealthMonitor {
	if collector == nil {
		collector = analytics.NopCollector{}
	}

	m := &HealthMonitor{
		registry:  registry,
		store:     store,
		collector: collector,
		clock:     clockz.RealClock,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.prober == nil {
		m.prober = adapterProber{clock: m.clock}
	}

	return m
}

// Start probes all providers once, then keeps probing on the configured
// interval until Stop is called
func (m *HealthMonitor) Start(ctx context.Context) {
	m.CheckAll(ctx)

	go func() {
		defer close(m.done)

		ticker := m.clock.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C():
				m.CheckAll(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the monitor loop deterministically
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}

// CheckAll probes every configured provider and replaces its health record
func (m *HealthMonitor) CheckAll(ctx context.Context) {
	for _, name := range m.registry.Names() {
		m.checkProvider(ctx, name)
	}
}

// checkProvider probes a single provider and classifies the result
func (m *HealthMonitor) checkProvider(ctx context.Context, name string) {
	previous, hadPrevious := m.store.Get(name)

	adapter, err := m.registry.Get(name)
	if err != nil {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	latency, successRate, probeErr := m.prober.Probe(probeCtx, name, adapter)

	health := ProviderHealth{
		Provider:     name,
		ResponseTime: latency,
		SuccessRate:  successRate,
		LastChecked:  m.clock.Now(),
	}

	if probeErr != nil {
		health.Status = HealthDown
		health.SuccessRate = 0
		health.RecentErrors = appendRecentError(previous.RecentErrors, probeErr.Error())
	} else {
		health.Status = Classify(successRate)
	}

	m.store.Set(health)

	if !hadPrevious || previous.Status != health.Status {
		m.collector.Record(ctx, analytics.Event{
			Name:     analytics.EventProviderHealthChanged,
			Provider: name,
			Status:   string(health.Status),
			Fields: map[string]any{
				"success_rate":     health.SuccessRate,
				"response_time_ms": health.ResponseTime.Milliseconds(),
			},
		})

		logger.Info("provider health changed", logger.LogContext{
			Provider: name,
			Fields: map[string]any{
				"status":       string(health.Status),
				"success_rate": health.SuccessRate,
			},
		})
	}
}

// Classify maps a synthetic success rate onto a health status
func Classify(successRate float64) HealthStatus {
	switch {
	case successRate > healthyThreshold:
		return HealthHealthy
	case successRate > degradedThreshold:
		return HealthDegraded
	default:
		return HealthDown
	}
}

// appendRecentError keeps the last few probe errors
func appendRecentError(errors []string, message string) []string {
	errors = append(errors, message)
	if len(errors) > 5 {
		errors = errors[len(errors)-5:]
	}
	return errors
}
