// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/registry"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	ConnectedClients prometheus.Gauge
	ActiveSessions   *prometheus.GaugeVec
	EventsHandled    *prometheus.CounterVec
	EventLatency     *prometheus.HistogramVec
	GamesFinished    *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of players seated in a game",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of open websocket connections",
		}),
		ActiveSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live game sessions by type",
		}, []string{"type"}),
		EventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Registry operations by event and outcome",
		}, []string{"event", "outcome"}),
		EventLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_latency_seconds",
			Help:      "Registry operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}, []string{"event"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by type and reason",
		}, []string{"type", "reason"}),
	}
}

// Monitor owns a private prometheus registry and implements registry.Recorder.
type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

var _ registry.Recorder = (*Monitor)(nil)

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		metrics:   NewMetrics(namespace),
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}
	m.registry.MustRegister(
		m.metrics.OnlinePlayers,
		m.metrics.ConnectedClients,
		m.metrics.ActiveSessions,
		m.metrics.EventsHandled,
		m.metrics.EventLatency,
		m.metrics.GamesFinished,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the server started",
		}, func() float64 {
			return time.Since(m.startTime).Seconds()
		}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the metrics in the prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (m *Monitor) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Monitor) ObserveEvent(event, outcome string, d time.Duration) {
	m.metrics.EventsHandled.WithLabelValues(event, outcome).Inc()
	m.metrics.EventLatency.WithLabelValues(event).Observe(d.Seconds())
}

func (m *Monitor) SetSessions(counts map[game.Type]int) {
	m.metrics.ActiveSessions.Reset()
	for t, n := range counts {
		m.metrics.ActiveSessions.WithLabelValues(string(t)).Set(float64(n))
	}
}

func (m *Monitor) SetOnlinePlayers(n int) {
	m.metrics.OnlinePlayers.Set(float64(n))
}

func (m *Monitor) GameFinished(t game.Type, reason string) {
	m.metrics.GamesFinished.WithLabelValues(string(t), reason).Inc()
}

func (m *Monitor) IncConnectedClients() {
	m.metrics.ConnectedClients.Inc()
}

func (m *Monitor) DecConnectedClients() {
	m.metrics.ConnectedClients.Dec()
}
