// Package metrics provides observability for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Born signal reasons.
const (
	ReasonTag   = "tag"
	ReasonSweep = "sweep"
	ReasonFeed  = "feed"
)

// Tag transition directions.
const (
	DirectionOn  = "on"
	DirectionOff = "off"
)

// Collector gathers server metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	TaggedEntities prometheus.Gauge
	TagTransitions *prometheus.CounterVec
	BornSignals    *prometheus.CounterVec
	Pruned         prometheus.Counter
	TickDuration   prometheus.Histogram
	StoreErrors    prometheus.Counter
	PropertyCache  *prometheus.CounterVec
	WSConnections  prometheus.Gauge
	WSMessages     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		TaggedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "babyturt_tagged_entities",
			Help: "Entities currently held in the tag cache.",
		}),
		TagTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babyturt_tag_transitions_total",
			Help: "Tag and untag transitions by direction.",
		}, []string{"direction"}),
		BornSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babyturt_born_signals_total",
			Help: "Growth reset signals emitted, by reason.",
		}, []string{"reason"}),
		Pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "babyturt_pruned_entities_total",
			Help: "Stale entities dropped from the tag cache.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "babyturt_tick_duration_seconds",
			Help:    "Time spent processing one scheduler tick.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "babyturt_store_errors_total",
			Help: "Entity property store failures.",
		}),
		PropertyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babyturt_property_cache_lookups_total",
			Help: "Property cache lookups by result.",
		}, []string{"result"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "babyturt_ws_connections",
			Help: "Active websocket connections.",
		}),
		WSMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babyturt_ws_messages_total",
			Help: "Websocket messages by direction.",
		}, []string{"direction"}),
	}

	c.registry.MustRegister(
		c.TaggedEntities,
		c.TagTransitions,
		c.BornSignals,
		c.Pruned,
		c.TickDuration,
		c.StoreErrors,
		c.PropertyCache,
		c.WSConnections,
		c.WSMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	c.TickDuration.Observe(latency.Seconds())
}

// RecordTransition records a tag state change and the new cache size.
func (c *Collector) RecordTransition(direction string, tagged int) {
	c.TagTransitions.WithLabelValues(direction).Inc()
	c.TaggedEntities.Set(float64(tagged))
}

// RecordBorn records growth reset signals.
func (c *Collector) RecordBorn(reason string, n int) {
	if n > 0 {
		c.BornSignals.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordPropertyLookup records a property cache hit or miss.
func (c *Collector) RecordPropertyLookup(hit bool) {
	if hit {
		c.PropertyCache.WithLabelValues("hit").Inc()
	} else {
		c.PropertyCache.WithLabelValues("miss").Inc()
	}
}

// RecordWSMessage records websocket traffic.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		c.WSMessages.WithLabelValues("in").Inc()
	} else {
		c.WSMessages.WithLabelValues("out").Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
