package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/truenas/ntirpc/pkg/metrics"
)

// probeMetrics is the Prometheus implementation of metrics.ProbeMetrics.
type probeMetrics struct {
	attemptsTotal    *prometheus.CounterVec
	attemptDuration  *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
	throttledSeconds prometheus.Counter
}

// NewProbeMetrics creates a ProbeMetrics backed by the global registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewProbeMetrics() metrics.ProbeMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopProbeMetrics()
	}
	return NewProbeMetricsWith(metrics.GetRegistry())
}

// NewProbeMetricsWith creates a ProbeMetrics registered on reg.
func NewProbeMetricsWith(reg prometheus.Registerer) metrics.ProbeMetrics {
	return &probeMetrics{
		attemptsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ntirpc_probe_attempts_total",
				Help: "Total number of RPC probe attempts by program, version and status",
			},
			[]string{"program", "version", "status"},
		),
		attemptDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ntirpc_probe_duration_milliseconds",
				Help: "Round trip time of RPC probe attempts in milliseconds",
				Buckets: []float64{
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"program", "version"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ntirpc_probe_bytes_total",
				Help: "Total record payload bytes moved by probes",
			},
			[]string{"direction"},
		),
		throttledSeconds: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ntirpc_probe_throttled_seconds_total",
				Help: "Total time probes spent waiting on the rate limiter",
			},
		),
	}
}

func (m *probeMetrics) RecordAttempt(program, version uint32, status string, duration time.Duration) {
	prog := strconv.FormatUint(uint64(program), 10)
	vers := strconv.FormatUint(uint64(version), 10)

	m.attemptsTotal.WithLabelValues(prog, vers, status).Inc()
	m.attemptDuration.WithLabelValues(prog, vers).Observe(duration.Seconds() * 1000)
}

func (m *probeMetrics) RecordBytes(direction string, n int) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(n))
}

func (m *probeMetrics) RecordThrottled(wait time.Duration) {
	m.throttledSeconds.Add(wait.Seconds())
}
