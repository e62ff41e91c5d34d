package webhook

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/paybridge/paybridge/infra/analytics"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/provider"
)

// Action reacts to a verified webhook event. Actions must tolerate duplicate
// invocation; replay protection reduces duplicates but does not guarantee
// exactly-once delivery across restarts.
type Action interface {
	Name() string
	Handle(ctx context.Context, event *Event) error
}

// ActionFunc adapts a function to the Action interface
type ActionFunc struct {
	ActionName string
	Fn         func(ctx context.Context, event *Event) error
}

func (a ActionFunc) Name() string { return a.ActionName }

func (a ActionFunc) Handle(ctx context.Context, event *Event) error { return a.Fn(ctx, event) }

// NotificationSink receives a copy of every dispatched event, e.g. to forward
// it to a merchant-facing queue
type NotificationSink interface {
	Notify(ctx context.Context, event *Event)
}

// ActionStatus is the terminal state of one action invocation
type ActionStatus string

const (
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
)

// ActionRecord captures the outcome of a single action run
type ActionRecord struct {
	Action string       `json:"action"`
	Status ActionStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// ProcessingResult reports what happened to one dispatched event: an
// ActionRecord per invoked action, in invocation order
type ProcessingResult struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Actions   []ActionRecord `json:"actions,omitempty"`
}

// Completed reports whether every invoked action completed
func (r *ProcessingResult) Completed() bool {
	for _, record := range r.Actions {
		if record.Status != ActionCompleted {
			return false
		}
	}
	return true
}

// Stats counts dispatcher activity per unified event type
type Stats struct {
	Received   int64            `json:"received"`
	Dispatched int64            `json:"dispatched"`
	Unknown    int64            `json:"unknown"`
	Failed     int64            `json:"failed_actions"`
	ByType     map[string]int64 `json:"by_type"`
}

// Dispatcher routes verified events to the actions registered for their
// unified type. Dispatch is best effort: a failing or panicking action is
// logged and counted, and the remaining actions still run.
type Dispatcher struct {
	mu        sync.RWMutex
	actions   map[string][]Action
	sinks     []NotificationSink
	collector analytics.Collector

	statsMu sync.Mutex
	stats   Stats
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(collector analytics.Collector) *Dispatcher {
	if collector == nil {
		collector = analytics.NopCollector{}
	}

	return &Dispatcher{
		actions:   make(map[string][]Action),
		collector: collector,
		stats:     Stats{ByType: make(map[string]int64)},
	}
}

// On registers an action for a unified event type. Multiple actions per type
// run in registration order.
func (d *Dispatcher) On(eventType string, action Action) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.actions[eventType] = append(d.actions[eventType], action)
}

// AddSink registers a notification sink receiving every dispatched event
func (d *Dispatcher) AddSink(sink NotificationSink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sinks = append(d.sinks, sink)
}

// Dispatch fans a verified event out to its registered actions and sinks and
// returns the per-action outcomes. Events whose native type mapped to no
// known unified type land in the unknown bucket and reach only the sinks.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) *ProcessingResult {
	d.statsMu.Lock()
	d.stats.Received++
	d.stats.ByType[event.EventType]++
	if event.EventType == provider.EventUnknown {
		d.stats.Unknown++
	}
	d.statsMu.Unlock()

	if event.EventType == provider.EventUnknown {
		logger.Warn("webhook event type not recognized", logger.LogContext{
			Provider: event.Provider,
			Fields:   map[string]any{"event_id": event.ID, "native_type": event.NativeType},
		})
	}

	d.mu.RLock()
	actions := d.actions[event.EventType]
	sinks := make([]NotificationSink, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	result := &ProcessingResult{
		EventID:   event.ID,
		EventType: event.EventType,
		Actions:   make([]ActionRecord, 0, len(actions)),
	}

	for _, action := range actions {
		record := ActionRecord{Action: action.Name(), Status: ActionCompleted}

		if err := d.runAction(ctx, action, event); err != nil {
			record.Status = ActionFailed
			record.Error = err.Error()

			d.statsMu.Lock()
			d.stats.Failed++
			d.statsMu.Unlock()

			logger.Error("webhook action failed", err, logger.LogContext{
				Provider: event.Provider,
				Fields: map[string]any{
					"action":     action.Name(),
					"event_id":   event.ID,
					"event_type": event.EventType,
				},
			})
		}

		result.Actions = append(result.Actions, record)
	}

	for _, sink := range sinks {
		sink.Notify(ctx, event)
	}

	d.statsMu.Lock()
	d.stats.Dispatched++
	d.statsMu.Unlock()

	d.collector.Record(ctx, analytics.Event{
		Name:      analytics.EventWebhookProcessed,
		Provider:  event.Provider,
		PaymentID: event.PaymentID,
		Amount:    event.Amount,
		Currency:  event.Currency,
		Status:    event.EventType,
	})

	return result
}

// runAction isolates one action invocation so a panic cannot take down the
// webhook handler
func (d *Dispatcher) runAction(ctx context.Context, action Action, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v\n%s", r, debug.Stack())
		}
	}()

	return action.Handle(ctx, event)
}

// Snapshot returns a copy of the dispatcher counters
func (d *Dispatcher) Snapshot() Stats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()

	out := d.stats
	out.ByType = make(map[string]int64, len(d.stats.ByType))
	for k, v := range d.stats.ByType {
		out.ByType[k] = v
	}

	return out
}
