// Package metrics exposes Prometheus collectors for sync, mirror, HTTP and push activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name
const Namespace = "staydesk"

// Refresh outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeOffline   = "offline"
	OutcomeStale     = "stale"
	OutcomeCancelled = "cancelled"
)

// Metrics owns a private registry and the collectors registered on it.
// Safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	online          prometheus.Gauge
	syncInProgress  prometheus.Gauge
	lastSync        prometheus.Gauge
	mirrorRecords   *prometheus.GaugeVec
	feedEvents      prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	pushDeliveries *prometheus.CounterVec
	pushPruned     prometheus.Counter
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "refresh_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching and applying a remote snapshot.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "online",
			Help:      "1 when the remote data service is reachable.",
		}),
		syncInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "in_progress",
			Help:      "1 while a refresh is running.",
		}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last applied snapshot.",
		}),
		mirrorRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "mirror",
			Name:      "records",
			Help:      "Records held in the local mirror by collection.",
		}, []string{"collection"}),
		feedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "feed_events_total",
			Help:      "Change notices received from the server feed.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pushDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "push",
			Name:      "deliveries_total",
			Help:      "Push relay deliveries by result.",
		}, []string{"result"}),
		pushPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "push",
			Name:      "pruned_subscriptions_total",
			Help:      "Subscriptions removed after the push service reported them gone.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.refreshTotal, m.refreshDuration, m.online, m.syncInProgress, m.lastSync,
		m.mirrorRecords, m.feedEvents,
		m.httpRequests, m.httpDuration,
		m.pushDeliveries, m.pushPruned,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRefresh records one refresh attempt
func (m *Metrics) ObserveRefresh(outcome string, d time.Duration) {
	m.refreshTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeError {
		m.refreshDuration.Observe(d.Seconds())
	}
	if outcome == OutcomeSuccess {
		m.lastSync.SetToCurrentTime()
	}
}

// SetOnline tracks connectivity
func (m *Metrics) SetOnline(online bool) {
	m.online.Set(boolGauge(online))
}

// SetSyncInProgress tracks the syncing badge
func (m *Metrics) SetSyncInProgress(inProgress bool) {
	m.syncInProgress.Set(boolGauge(inProgress))
}

// SetMirrorRecords sets the record count for a collection
func (m *Metrics) SetMirrorRecords(collection string, n int) {
	m.mirrorRecords.WithLabelValues(collection).Set(float64(n))
}

// FeedEventReceived counts a change notice from the server
func (m *Metrics) FeedEventReceived() {
	m.feedEvents.Inc()
}

// ObserveHTTP records a served request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// PushDelivered counts one relay delivery
func (m *Metrics) PushDelivered(success bool) {
	result := "failed"
	if success {
		result = "sent"
	}
	m.pushDeliveries.WithLabelValues(result).Inc()
}

// PushPruned counts a removed subscription
func (m *Metrics) PushPruned() {
	m.pushPruned.Inc()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
