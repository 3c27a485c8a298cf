// Package monitoring provides Prometheus metrics for the bridge service:
// HTTP request metrics via Gin middleware, connection-state and envelope
// telemetry recorded by the connection controller, probe outcomes, and
// agent relay call metrics.
//
// Metrics take an explicit registerer so tests can use isolated
// registries; production passes nil for the default registry and exposes
// it at /metrics via promhttp.
package monitoring
