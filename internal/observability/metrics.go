package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/ircbot/internal/protocol"
	"github.com/danmuck/ircbot/internal/protocol/session"
)

const namespace = "ircbot"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	linesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "lines_received_total",
			Help:      "Inbound chat lines by classification.",
		},
		[]string{"kind"},
	)
	commandsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "commands_dispatched_total",
			Help:      "Parsed commands handed to the registry.",
		},
		[]string{"command", "success"},
	)
	sessionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "1 for the current session state, 0 otherwise.",
		},
		[]string{"state"},
	)
	reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts scheduled after a retried failure.",
		},
	)
	backoffDelay = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "backoff_delay_seconds",
			Help:      "Most recent reconnect delay.",
		},
	)
	backoffAttempt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "backoff_attempt",
			Help:      "Current backoff exponent.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			linesReceived,
			commandsDispatched,
			sessionState,
			reconnects,
			backoffDelay,
			backoffAttempt,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordBackoff(attempt int, delay time.Duration) {
	RegisterMetrics()
	reconnects.Inc()
	backoffAttempt.Set(float64(attempt))
	backoffDelay.Set(delay.Seconds())
}

// SessionMetrics feeds session loop events into the collectors above.
type SessionMetrics struct{}

var _ session.Observer = SessionMetrics{}

func (SessionMetrics) LineReceived(kind protocol.Kind) {
	RegisterMetrics()
	linesReceived.WithLabelValues(kind.String()).Inc()
}

func (SessionMetrics) CommandDispatched(name string, err error) {
	RegisterMetrics()
	commandsDispatched.WithLabelValues(name, strconv.FormatBool(err == nil)).Inc()
}

func (SessionMetrics) StateChanged(state session.State) {
	RegisterMetrics()
	for _, s := range session.AllStates() {
		value := 0.0
		if s == state {
			value = 1
		}
		sessionState.WithLabelValues(s.String()).Set(value)
	}
}
