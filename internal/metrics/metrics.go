// Package metrics exposes Prometheus instruments for resolutions and page loads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/omnibar/internal/models"
)

const namespace = "omnibar"

// Collector holds the service instruments.
type Collector struct {
	resolutions  *prometheus.CounterVec
	pageLoads    *prometheus.CounterVec
	loadDuration prometheus.Histogram
	gatherer     prometheus.Gatherer
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers the instruments on reg. Passing a fresh prometheus.NewRegistry()
// keeps tests isolated.
func New(reg *prometheus.Registry) *Collector {
	f := promauto.With(reg)
	return &Collector{
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Address-bar inputs classified, by kind.",
		}, []string{"kind"}),
		pageLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_loads_total",
			Help:      "Page loads finished by the rendering surface, by outcome.",
		}, []string{"outcome"}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_load_duration_seconds",
			Help:      "Page load duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		gatherer: reg,
	}
}

// ObserveResolution counts one classification.
func (c *Collector) ObserveResolution(t models.Target) {
	c.resolutions.WithLabelValues(string(t.Kind)).Inc()
}

// ObservePageLoad counts one finished load and its duration.
func (c *Collector) ObservePageLoad(outcome string, elapsed time.Duration) {
	c.pageLoads.WithLabelValues(outcome).Inc()
	c.loadDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
