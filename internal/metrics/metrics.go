package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors exposed on /metrics.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "linkmart",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkmart",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "linkmart",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkmart",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Balance mutations by direction, wallet and result.",
		},
		[]string{"direction", "wallet", "result"},
	)

	depositCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkmart",
			Subsystem: "deposit",
			Name:      "confirmations_total",
			Help:      "Gateway confirmations by source and outcome (credited, duplicate, failed, pending).",
		},
		[]string{"source", "outcome"},
	)

	webhookResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkmart",
			Subsystem: "paystack",
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by result.",
		},
		[]string{"result"},
	)

	dispatchResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkmart",
			Subsystem: "boost",
			Name:      "dispatch_total",
			Help:      "Automatic boost dispatches by result.",
		},
		[]string{"result"},
	)

	outboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkmart",
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox messages handed to the broker by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOps,
		depositCredits,
		webhookResults,
		dispatchResults,
		outboxPublished,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted tracks one in-flight request; call the returned func with the final status.
func RequestStarted(method, path string) func(status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(status int) {
		httpInFlight.Dec()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordLedger(direction, wallet string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ledgerOps.WithLabelValues(direction, wallet, result).Inc()
}

func RecordDeposit(source, outcome string) {
	depositCredits.WithLabelValues(source, outcome).Inc()
}

func RecordWebhook(result string) {
	webhookResults.WithLabelValues(result).Inc()
}

func RecordDispatch(result string) {
	dispatchResults.WithLabelValues(result).Inc()
}

func RecordOutbox(result string) {
	outboxPublished.WithLabelValues(result).Inc()
}
