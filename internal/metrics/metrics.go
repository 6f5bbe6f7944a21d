// Package metrics owns the Prometheus collectors of the pipeline and the
// recommendation engine. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsbrief"

type Metrics struct {
	registry *prometheus.Registry

	CrawlItems          *prometheus.CounterVec
	IngestArticles      *prometheus.CounterVec
	EnrichmentTasks     *prometheus.CounterVec
	EmbeddingCache      *prometheus.CounterVec
	RecommendDuration   prometheus.Histogram
	CrawlDuration       prometheus.Histogram
	IndexedDocuments    *prometheus.CounterVec
	ProviderBreakerOpen *prometheus.GaugeVec
}

// New registers every collector on registry; nil creates a fresh one with
// the Go and process collectors attached.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		CrawlItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_items_total",
			Help:      "Article URLs handled by the crawler, by outcome.",
		}, []string{"outcome"}),
		IngestArticles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_articles_total",
			Help:      "Articles offered to the dedup gate, by outcome.",
		}, []string{"outcome"}),
		EnrichmentTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_tasks_total",
			Help:      "Finished enrichment tasks, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		EmbeddingCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Keyword embedding cache lookups, by result.",
		}, []string{"result"}),
		RecommendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time spent building a recommendation list.",
			Buckets:   prometheus.DefBuckets,
		}),
		CrawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_duration_seconds",
			Help:      "Wall time of a full crawl run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		IndexedDocuments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_documents_total",
			Help:      "Documents sent to the vector index, by outcome.",
		}, []string{"outcome"}),
		ProviderBreakerOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_breaker_open",
			Help:      "1 while the circuit breaker of a provider is open.",
		}, []string{"provider"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CrawlItem(outcome string) {
	if m == nil {
		return
	}
	m.CrawlItems.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CrawlFinished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CrawlDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Ingest(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IngestArticles.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) EnrichmentTask(kind string, success bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "succeeded"
	}
	m.EnrichmentTasks.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) EmbeddingLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EmbeddingCache.WithLabelValues(result).Inc()
}

func (m *Metrics) RecommendationServed(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RecommendDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Indexed(indexed, failed int) {
	if m == nil {
		return
	}
	m.IndexedDocuments.WithLabelValues("indexed").Add(float64(indexed))
	m.IndexedDocuments.WithLabelValues("failed").Add(float64(failed))
}

// BreakerOpen records the circuit state of a provider.
func (m *Metrics) BreakerOpen(provider string, open bool) {
	if m == nil {
		return
	}
	value := 0.0
	if open {
		value = 1
	}
	m.ProviderBreakerOpen.WithLabelValues(provider).Set(value)
}
