package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bridge service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bridge metrics
	ConnectionState *prometheus.GaugeVec
	Envelopes       *prometheus.CounterVec
	ProbeChecks     *prometheus.CounterVec
	PeerAttached    prometheus.Gauge

	// Relay metrics
	RelayCalls    *prometheus.CounterVec
	RelayDuration prometheus.Histogram

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on the given registerer;
// nil uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ConnectionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_connection_state",
				Help: "Current connection state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		Envelopes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_envelopes_total",
				Help: "Total number of envelopes sent or accepted",
			},
			[]string{"direction", "type"},
		),
		ProbeChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_probe_checks_total",
				Help: "Total number of health probe outcomes",
			},
			[]string{"result"},
		),
		PeerAttached: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_peer_attached",
				Help: "Whether a peer handle is currently attached",
			},
		),

		RelayCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relay_calls_total",
				Help: "Total number of agent relay calls",
			},
			[]string{"status"},
		),
		RelayDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_relay_duration_seconds",
				Help:    "Agent relay call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	m.SetConnectionState("disconnected")
	return m
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEnvelope records an envelope sent or accepted on the channel.
func (m *Metrics) RecordEnvelope(direction, msgType string) {
	m.Envelopes.WithLabelValues(direction, msgType).Inc()
}

// RecordProbe records a health probe outcome.
func (m *Metrics) RecordProbe(reachable bool) {
	result := "unreachable"
	if reachable {
		result = "reachable"
	}
	m.ProbeChecks.WithLabelValues(result).Inc()
}

// SetConnectionState marks the active connection state.
func (m *Metrics) SetConnectionState(state string) {
	for _, s := range []string{"disconnected", "connected", "error"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.ConnectionState.WithLabelValues(s).Set(v)
	}
}

// SetPeerAttached flags whether a peer handle is attached.
func (m *Metrics) SetPeerAttached(attached bool) {
	if attached {
		m.PeerAttached.Set(1)
	} else {
		m.PeerAttached.Set(0)
	}
}

// RecordRelayCall records an agent relay call.
func (m *Metrics) RecordRelayCall(status string, duration time.Duration) {
	m.RelayCalls.WithLabelValues(status).Inc()
	m.RelayDuration.Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
