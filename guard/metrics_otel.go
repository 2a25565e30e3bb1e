package guard

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelGuardMetrics implements component.MetricsProvider for OpenTelemetry integration.
type OTelGuardMetrics struct {
	config     GuardMetricsConfig
	meter      metric.Meter
	registered bool
	mu         sync.RWMutex

	// Metrics instruments
	callsTotal      metric.Int64Counter         // Total guarded calls
	successesTotal  metric.Int64Counter         // Successful calls
	failuresTotal   metric.Int64Counter         // Failed calls (including timeouts)
	rejectionsTotal metric.Int64Counter         // Rejected calls (circuit open)
	fallbacksTotal  metric.Int64Counter         // Fallback invocations
	latency         metric.Float64Histogram     // Call latency
	stateGauge      metric.Int64ObservableGauge // Current state (0=closed, 1=open, 2=half-open)

	// State tracking for gauge
	stateCallbacks map[string]func() int64
	stateMu        sync.RWMutex
}

// GuardMetricsConfig holds configuration for call guard metrics
type GuardMetricsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	RecordState bool `mapstructure:"record_state"`
}

// NewOTelGuardMetrics creates a new OTel metrics provider for the call guard
func NewOTelGuardMetrics(cfg GuardMetricsConfig) *OTelGuardMetrics {
	return &OTelGuardMetrics{
		config:         cfg,
		stateCallbacks: make(map[string]func() int64),
	}
}

// MetricsName returns the metrics group name
func (m *OTelGuardMetrics) MetricsName() string {
	return "callguard"
}

// IsMetricsEnabled returns whether metrics collection is enabled
func (m *OTelGuardMetrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics registers all call guard metrics with the provided Meter
func (m *OTelGuardMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	m.meter = meter
	var err error

	m.callsTotal, err = meter.Int64Counter(
		"callguard_calls_total",
		metric.WithDescription("Total number of guarded calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	m.successesTotal, err = meter.Int64Counter(
		"callguard_successes_total",
		metric.WithDescription("Total number of successful guarded calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	m.failuresTotal, err = meter.Int64Counter(
		"callguard_failures_total",
		metric.WithDescription("Total number of failed guarded calls (including timeouts)"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	m.rejectionsTotal, err = meter.Int64Counter(
		"callguard_rejections_total",
		metric.WithDescription("Total number of rejected calls (circuit open)"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	m.fallbacksTotal, err = meter.Int64Counter(
		"callguard_fallbacks_total",
		metric.WithDescription("Total number of fallback invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	m.latency, err = meter.Float64Histogram(
		"callguard_latency_seconds",
		metric.WithDescription("Guarded call latency distribution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	// Optional: state gauge
	if m.config.RecordState {
		m.stateGauge, err = meter.Int64ObservableGauge(
			"callguard_state",
			metric.WithDescription("Current call guard state (0=closed, 1=open, 2=half-open)"),
			metric.WithInt64Callback(m.collectState),
		)
		if err != nil {
			return err
		}
	}

	m.registered = true
	return nil
}

// collectState is the callback for the observable gauge
func (m *OTelGuardMetrics) collectState(_ context.Context, observer metric.Int64Observer) error {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	for resource, callback := range m.stateCallbacks {
		observer.Observe(callback(),
			metric.WithAttributes(attribute.String("resource", resource)),
		)
	}
	return nil
}

// RegisterStateCallback registers a callback for a resource's state
func (m *OTelGuardMetrics) RegisterStateCallback(resource string, callback func() int64) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.stateCallbacks[resource] = callback
}

// UnregisterStateCallback removes a resource's state callback
func (m *OTelGuardMetrics) UnregisterStateCallback(resource string) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	delete(m.stateCallbacks, resource)
}

// RecordSuccess records a successful call
func (m *OTelGuardMetrics) RecordSuccess(ctx context.Context, resource string, duration time.Duration) {
	if !m.IsRegistered() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("resource", resource),
		attribute.String("result", "success"),
	}

	m.callsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.successesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
	m.latency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("resource", resource)))
}

// RecordFailure records a failed call
func (m *OTelGuardMetrics) RecordFailure(ctx context.Context, resource string, duration time.Duration, timeout bool) {
	if !m.IsRegistered() {
		return
	}

	result := "failure"
	if timeout {
		result = "timeout"
	}
	attrs := []attribute.KeyValue{
		attribute.String("resource", resource),
		attribute.String("result", result),
	}

	m.callsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.failuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("result", result),
	))
	m.latency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("resource", resource)))
}

// RecordRejection records a rejected call
func (m *OTelGuardMetrics) RecordRejection(ctx context.Context, resource string) {
	if !m.IsRegistered() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("resource", resource),
		attribute.String("result", "rejected"),
	}

	m.callsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.rejectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

// RecordFallback records a fallback invocation
func (m *OTelGuardMetrics) RecordFallback(ctx context.Context, resource string, success bool) {
	if !m.IsRegistered() {
		return
	}

	m.fallbacksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.Bool("success", success),
	))
}

// IsRegistered returns whether metrics have been registered
func (m *OTelGuardMetrics) IsRegistered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

// EventListener returns a bus listener that feeds guard events into the
// OTel instruments. Subscribe it to a Manager's event bus:
//
//	bus := mgr.GetEventBus()
//	bus.Subscribe(otelMetrics.EventListener())
func (m *OTelGuardMetrics) EventListener() EventListener {
	return EventListenerFunc(func(event Event) {
		ctx := event.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		switch e := event.(type) {
		case *CallEvent:
			if e.Success {
				m.RecordSuccess(ctx, e.Resource(), e.Duration)
			} else {
				m.RecordFailure(ctx, e.Resource(), e.Duration, e.Type() == EventCallTimeout)
			}
		case *RejectedEvent:
			m.RecordRejection(ctx, e.Resource())
		case *FallbackEvent:
			m.RecordFallback(ctx, e.Resource(), e.Success)
		}
	})
}
