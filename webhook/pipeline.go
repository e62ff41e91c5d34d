package webhook

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/infra/opensearch"
	"github.com/paybridge/paybridge/provider"
)

// Pipeline runs every inbound webhook through a fixed sequence of checks:
// rate limit, IP allowlist, payload parse, signature verification, replay
// detection. The first failing stage decides the outcome; later stages never
// run. Every run is logged with its outcome and latency regardless of where
// it stopped.
type Pipeline struct {
	registry  *provider.Registry
	verifier  *Verifier
	replay    ReplayStore
	limiter   *RateLimiter
	allowList *IPAllowList
	cfg       config.WebhookConfig
	oslog     *opensearch.Logger
	clock     clockz.Clock
}

// PipelineOption customizes a Pipeline
type PipelineOption func(*Pipeline)

// WithReplayStore swaps the replay store, e.g. for the Redis-backed one
func WithReplayStore(store ReplayStore) PipelineOption {
	return func(p *Pipeline) {
		p.replay = store
	}
}

// WithPipelineClock overrides the time source
func WithPipelineClock(clock clockz.Clock) PipelineOption {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

// NewPipeline wires the verification pipeline from configuration. oslog may
// be nil when OpenSearch indexing is disabled.
func NewPipeline(registry *provider.Registry, verifier *Verifier, cfg config.WebhookConfig, oslog *opensearch.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		registry:  registry,
		verifier:  verifier,
		cfg:       cfg,
		oslog:     oslog,
		clock:     clockz.RealClock,
		allowList: NewIPAllowList(cfg.AllowedIPs),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.replay == nil {
		p.replay = NewReplayCache(cfg.ReplayWindow, p.clock)
	}
	if p.limiter == nil {
		p.limiter = NewRateLimiter(cfg.RateLimitPerMinute, time.Minute, p.clock)
	}

	return p
}

// Process runs one webhook delivery through the pipeline and returns the
// terminal result
func (p *Pipeline) Process(ctx context.Context, providerName, sourceIP, signatureHeader string, body []byte) *Result {
	started := p.clock.Now()

	result := p.run(ctx, providerName, sourceIP, signatureHeader, body)
	result.Duration = p.clock.Now().Sub(started)

	p.logResult(ctx, providerName, sourceIP, result)

	return result
}

func (p *Pipeline) run(ctx context.Context, providerName, sourceIP, signatureHeader string, body []byte) *Result {
	if p.cfg.EnableRateLimiting && !p.limiter.Allow(sourceIP) {
		return &Result{Outcome: OutcomeFailed, Detail: DetailRateLimitExceeded}
	}

	if p.cfg.EnableIPWhitelist && !p.allowList.Allowed(sourceIP) {
		return &Result{Outcome: OutcomeFailed, Detail: DetailIPNotAllowed}
	}

	adapter, err := p.registry.Get(providerName)
	if err != nil {
		return &Result{Outcome: OutcomeFailed, Detail: DetailProviderNotFound}
	}

	data, err := adapter.ParseWebhook(body)
	if err != nil {
		logger.Warn("webhook payload parse failed", logger.LogContext{
			Provider: providerName,
			Fields:   map[string]any{"error": err.Error()},
		})
		return &Result{Outcome: OutcomeFailed, Detail: DetailParseFailed}
	}

	if p.cfg.EnableSignatureVerification {
		outcome, verr := p.verifier.Verify(adapter, providerName, signatureHeader, body)
		if outcome != OutcomeVerified {
			detail := ""
			if verr != nil {
				detail = verr.Error()
			}
			return &Result{Outcome: outcome, Detail: detail}
		}
	}

	eventType, known := adapter.MapEventType(data.NativeType)
	if !known {
		eventType = provider.EventUnknown
	}
	event := fromEventData(providerName, data, eventType, body)

	if p.cfg.EnableReplayProtection {
		seen, rerr := p.replay.CheckAndRecord(ctx, providerName, data.EventID, p.clock.Now())
		if rerr != nil {
			// Fail closed: an unreachable replay store must not let
			// duplicate deliveries through
			logger.Error("replay store check failed", rerr, logger.LogContext{
				Provider: providerName,
				Fields:   map[string]any{"event_id": data.EventID},
			})
			return &Result{Outcome: OutcomeFailed, Detail: "replay check unavailable"}
		}
		if seen {
			return &Result{Outcome: OutcomeReplay, Detail: "event already processed", Event: event}
		}
	}

	return &Result{Outcome: OutcomeVerified, Event: event}
}

func (p *Pipeline) logResult(ctx context.Context, providerName, sourceIP string, result *Result) {
	entry := opensearch.WebhookLog{
		Timestamp:        p.clock.Now(),
		Provider:         providerName,
		Outcome:          string(result.Outcome),
		SourceIP:         sourceIP,
		ProcessingTimeMs: result.Duration.Milliseconds(),
	}

	if result.Event != nil {
		entry.EventID = result.Event.ID
		entry.EventType = result.Event.EventType
	}
	if result.Outcome != OutcomeVerified && result.Detail != "" {
		entry.Error = &opensearch.ErrorInfo{Message: result.Detail}
	}

	if p.oslog != nil {
		go func() {
			if err := p.oslog.LogWebhook(context.WithoutCancel(ctx), entry); err != nil {
				logger.Debug("failed to index webhook log", logger.LogContext{
					Provider: providerName,
					Fields:   map[string]any{"error": err.Error()},
				})
			}
		}()
	}

	fields := map[string]any{
		"outcome":   string(result.Outcome),
		"source_ip": sourceIP,
		"took_ms":   result.Duration.Milliseconds(),
	}
	if result.Detail != "" {
		fields["detail"] = result.Detail
	}

	if result.Outcome == OutcomeVerified {
		logger.Info("webhook verified", logger.LogContext{Provider: providerName, Fields: fields})
	} else {
		logger.Warn("webhook rejected", logger.LogContext{Provider: providerName, Fields: fields})
	}
}
