// Package metrics exports session counters as Prometheus metrics.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "github_star_badge"

// Metrics holds the collectors for one session.
type Metrics struct {
	registry *prom.Registry

	cacheHits     prom.Counter
	cacheMisses   prom.Counter
	resolveErrors *prom.CounterVec
	scans         *prom.CounterVec
	badgesAdded   prom.Counter
	badgesRemoved prom.Counter
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry:      prom.NewRegistry(),
		cacheHits:     prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "cache_hits_total", Help: "Star count lookups served from the session cache"}),
		cacheMisses:   prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "cache_misses_total", Help: "Star count lookups that required an API request"}),
		resolveErrors: prom.NewCounterVec(prom.CounterOpts{Namespace: namespace, Name: "resolve_errors_total", Help: "Failed star count resolutions by kind"}, []string{"kind"}),
		scans:         prom.NewCounterVec(prom.CounterOpts{Namespace: namespace, Name: "scans_total", Help: "Anchor scans per root selector"}, []string{"selector"}),
		badgesAdded:   prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "badges_added_total", Help: "Badges appended to anchors"}),
		badgesRemoved: prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "badges_removed_total", Help: "Badges removed from anchors"}),
	}
	m.registry.MustRegister(m.cacheHits, m.cacheMisses, m.resolveErrors, m.scans, m.badgesAdded, m.badgesRemoved)
	m.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) ResolveError(kind string) {
	if m != nil {
		m.resolveErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Scan(selector string) {
	if m != nil {
		m.scans.WithLabelValues(selector).Inc()
	}
}

func (m *Metrics) BadgeAdded() {
	if m != nil {
		m.badgesAdded.Inc()
	}
}

func (m *Metrics) BadgeRemoved() {
	if m != nil {
		m.badgesRemoved.Inc()
	}
}
