// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "directory"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	logins           *prometheus.CounterVec
	personsCreated   prometheus.Counter
	usersCreated     prometheus.Counter
	published        *prometheus.CounterVec
	dropped          *prometheus.CounterVec
	subscribers      *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations executed, by name and outcome code.",
		}, []string{"operation", "code"}),
		operationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		personsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persons_created_total",
			Help:      "Persons added to the directory.",
		}),
		usersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Users registered.",
		}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Event deliveries to subscribers, by topic.",
		}, []string{"topic"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}, []string{"topic"}),
		subscribers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Active subscribers, by topic.",
		}, []string{"topic"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveOperation(operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.operationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) LoginSucceeded() {
	if m == nil {
		return
	}
	m.logins.WithLabelValues("ok").Inc()
}

func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.logins.WithLabelValues("rejected").Inc()
}

func (m *Metrics) PersonCreated() {
	if m == nil {
		return
	}
	m.personsCreated.Inc()
}

func (m *Metrics) UserCreated() {
	if m == nil {
		return
	}
	m.usersCreated.Inc()
}

func (m *Metrics) SubscriberAdded(topic string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(topic).Inc()
}

func (m *Metrics) SubscriberRemoved(topic string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(topic).Dec()
}

func (m *Metrics) Published(topic string, delivered int) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(topic).Add(float64(delivered))
}

func (m *Metrics) Dropped(topic string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(topic).Inc()
}
