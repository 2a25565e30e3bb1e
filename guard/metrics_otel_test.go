package guard

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewOTelGuardMetrics(t *testing.T) {
	t.Run("creates with config", func(t *testing.T) {
		m := NewOTelGuardMetrics(GuardMetricsConfig{
			Enabled:     true,
			RecordState: true,
		})

		assert.NotNil(t, m)
		assert.True(t, m.config.Enabled)
		assert.False(t, m.IsRegistered())
	})
}

func TestOTelGuardMetrics_MetricsProvider(t *testing.T) {
	t.Run("MetricsName returns callguard", func(t *testing.T) {
		m := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true})
		assert.Equal(t, "callguard", m.MetricsName())
	})

	t.Run("IsMetricsEnabled reflects config", func(t *testing.T) {
		assert.True(t, NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true}).IsMetricsEnabled())
		assert.False(t, NewOTelGuardMetrics(GuardMetricsConfig{Enabled: false}).IsMetricsEnabled())
	})
}

func TestOTelGuardMetrics_RegisterMetrics(t *testing.T) {
	t.Run("registers all metrics", func(t *testing.T) {
		mp := noop.NewMeterProvider()
		meter := mp.Meter("test")

		m := NewOTelGuardMetrics(GuardMetricsConfig{
			Enabled:     true,
			RecordState: true,
		})
		err := m.RegisterMetrics(meter)

		require.NoError(t, err)
		assert.True(t, m.IsRegistered())
		assert.NotNil(t, m.callsTotal)
		assert.NotNil(t, m.successesTotal)
		assert.NotNil(t, m.failuresTotal)
		assert.NotNil(t, m.rejectionsTotal)
		assert.NotNil(t, m.fallbacksTotal)
		assert.NotNil(t, m.latency)
		assert.NotNil(t, m.stateGauge)
	})

	t.Run("idempotent registration", func(t *testing.T) {
		mp := noop.NewMeterProvider()
		meter := mp.Meter("test")

		m := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true})
		require.NoError(t, m.RegisterMetrics(meter))
		require.NoError(t, m.RegisterMetrics(meter))
	})

	t.Run("state gauge skipped when disabled", func(t *testing.T) {
		mp := noop.NewMeterProvider()
		meter := mp.Meter("test")

		m := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true, RecordState: false})
		require.NoError(t, m.RegisterMetrics(meter))
		assert.Nil(t, m.stateGauge)
	})
}

func TestOTelGuardMetrics_RecordMethods(t *testing.T) {
	mp := noop.NewMeterProvider()
	meter := mp.Meter("test")

	m := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true})
	require.NoError(t, m.RegisterMetrics(meter))

	ctx := context.Background()

	t.Run("RecordSuccess does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordSuccess(ctx, "test-resource", 100*time.Millisecond)
		})
	})

	t.Run("RecordFailure does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordFailure(ctx, "test-resource", 50*time.Millisecond, true)
		})
	})

	t.Run("RecordRejection does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordRejection(ctx, "test-resource")
		})
	})

	t.Run("RecordFallback does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordFallback(ctx, "test-resource", true)
		})
	})

	t.Run("records before registration are no-ops", func(t *testing.T) {
		unregistered := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true})
		assert.NotPanics(t, func() {
			unregistered.RecordSuccess(ctx, "test-resource", time.Millisecond)
		})
	})
}

func TestOTelGuardMetrics_StateCallbacks(t *testing.T) {
	m := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true, RecordState: true})

	m.RegisterStateCallback("payment", func() int64 { return int64(StateOpen) })
	assert.Len(t, m.stateCallbacks, 1)

	m.UnregisterStateCallback("payment")
	assert.Empty(t, m.stateCallbacks)
}

func TestOTelGuardMetrics_EventListener(t *testing.T) {
	mp := noop.NewMeterProvider()
	meter := mp.Meter("test")

	m := NewOTelGuardMetrics(GuardMetricsConfig{Enabled: true})
	require.NoError(t, m.RegisterMetrics(meter))

	listener := m.EventListener()
	ctx := context.Background()

	t.Run("handles all event kinds", func(t *testing.T) {
		assert.NotPanics(t, func() {
			listener.OnEvent(&CallEvent{
				BaseEvent: NewBaseEvent(EventCallSuccess, "payment", ctx),
				Success:   true,
				Duration:  10 * time.Millisecond,
			})
			listener.OnEvent(&CallEvent{
				BaseEvent: NewBaseEvent(EventCallTimeout, "payment", ctx),
				Duration:  5 * time.Second,
			})
			listener.OnEvent(&RejectedEvent{
				BaseEvent:    NewBaseEvent(EventCallRejected, "payment", ctx),
				CurrentState: StateOpen,
			})
			listener.OnEvent(&FallbackEvent{
				BaseEvent: NewBaseEvent(EventFallbackSuccess, "payment", ctx),
				Success:   true,
			})
		})
	})

	t.Run("wired into a manager event bus", func(t *testing.T) {
		mgr, err := NewManagerWithClock(enabledTestConfig(), nil, clockwork.NewFakeClock())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.GetEventBus().Subscribe(listener)

		_, _ = okCall(mgr, "payment")
		_, _ = failCall(mgr, "payment")
	})
}
