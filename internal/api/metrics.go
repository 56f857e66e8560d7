package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the service-level counters exposed on the metrics listener.
type Metrics struct {
	recipesScored   *prometheus.CounterVec
	scoreDuration   prometheus.Histogram
	itemsPerRecipe  prometheus.Histogram
	itemFailures    prometheus.Counter
	catalogRebuilds prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		recipesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "platescore_recipes_scored_total",
			Help: "Recipe scoring requests by outcome.",
		}, []string{"outcome"}),
		scoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "platescore_score_duration_seconds",
			Help:    "End-to-end recipe scoring duration.",
			Buckets: prometheus.DefBuckets,
		}),
		itemsPerRecipe: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "platescore_items_per_recipe",
			Help:    "Number of items per scored recipe.",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		itemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "platescore_item_failures_total",
			Help: "Item selectors that could not be resolved.",
		}),
		catalogRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "platescore_catalog_rebuilds_total",
			Help: "Catalog rebuild notifications received since startup.",
		}),
	}

	prometheus.MustRegister(
		m.recipesScored,
		m.scoreDuration,
		m.itemsPerRecipe,
		m.itemFailures,
		m.catalogRebuilds,
	)
	return m
}

// CatalogRebuildSeen records one catalog rebuild notification.
func (m *Metrics) CatalogRebuildSeen() {
	if m == nil {
		return
	}
	m.catalogRebuilds.Inc()
}
