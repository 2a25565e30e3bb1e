// Package component provides component interface definitions
package component

import (
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider defines the interface for components that provide metrics.
// Components can optionally implement this interface to register their metrics
// with an application-level metrics registry.
type MetricsProvider interface {
	// MetricsName returns the metrics group name (used for Meter naming).
	// Should be a short, lowercase identifier like "callguard".
	MetricsName() string

	// RegisterMetrics registers all metrics for this component.
	// The meter is pre-configured with the component's namespace.
	RegisterMetrics(meter metric.Meter) error

	// IsMetricsEnabled returns whether metrics collection is enabled.
	IsMetricsEnabled() bool
}
