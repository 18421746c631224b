// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TemplateCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "template_cache_hits_total",
			Help: "Total number of template fetches served from cache",
		},
	)

	TemplateCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "template_cache_misses_total",
			Help: "Total number of template fetches that fell through to the store",
		},
	)

	TemplateCacheErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "template_cache_errors_total",
			Help: "Total number of cache layer failures degraded to direct reads",
		},
	)

	TemplateFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "template_fetch_duration_seconds",
			Help: "Duration of template fetches in seconds",
		},
		[]string{"source"},
	)

	TemplateWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_writes_total",
			Help: "Total number of template lifecycle writes by operation",
		},
		[]string{"operation"},
	)
)
