package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds every collector the API exports. It satisfies cart.Observer.
type Metrics struct {
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	Merges       prometheus.Counter
	Clamps       *prometheus.CounterVec
	GhostLines   prometheus.Counter
	CacheLookups *prometheus.CounterVec
	Events       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Tests pass a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "merges_total",
			Help:      "Guest carts merged into user carts.",
		}),
		Clamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "quantity_clamps_total",
			Help:      "Line quantities reduced to the stock ceiling.",
		}, []string{"reason"}),
		GhostLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "ghost_lines_purged_total",
			Help:      "Duplicate, non-positive or orphaned lines deleted.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "cache_lookups_total",
			Help:      "Configuration cache lookups by result.",
		}, []string{"key", "result"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "events_published_total",
			Help:      "Cart events handed to the broker, by outcome.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.Merges, m.Clamps, m.GhostLines, m.CacheLookups, m.Events)
	return m
}

func (m *Metrics) Merged()                { m.Merges.Inc() }
func (m *Metrics) Clamped(reason string)  { m.Clamps.WithLabelValues(reason).Inc() }
func (m *Metrics) GhostLinesPurged(n int) { m.GhostLines.Add(float64(n)) }

// CacheHit and CacheMiss label by key family so per-cart promotion keys do
// not explode cardinality.
func (m *Metrics) CacheHit(key string)  { m.CacheLookups.WithLabelValues(family(key), "hit").Inc() }
func (m *Metrics) CacheMiss(key string) { m.CacheLookups.WithLabelValues(family(key), "miss").Inc() }

func (m *Metrics) EventPublished(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route string, status int, ms float64) {
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(ms)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func family(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
