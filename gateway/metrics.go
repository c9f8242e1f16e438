// cybercraft-launcher/gateway/metrics.go
package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	logLines prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Subsystem: "gateway",
			Name:      "operations_total",
			Help:      "Privileged operations dispatched, by op and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "launcher",
			Subsystem: "gateway",
			Name:      "operation_duration_seconds",
			Help:      "Time spent dispatching privileged operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		logLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "launcher",
			Subsystem: "gateway",
			Name:      "game_log_lines_total",
			Help:      "Game log lines published to the UI.",
		}),
	}
	reg.MustRegister(m.calls, m.duration, m.logLines)
	return m
}

func (m *Metrics) observe(op Op, err error, started time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(string(op), outcome).Inc()
	m.duration.WithLabelValues(string(op)).Observe(time.Since(started).Seconds())
}
