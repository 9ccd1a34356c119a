package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
)

var (
	skuChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sku_checks_total",
			Help: "SKU checks by outcome reason",
		},
		[]string{"reason"},
	)

	skuLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_sku_lookup_duration_seconds",
			Help:    "Duration of remote SKU usage lookups",
			Buckets: prometheus.DefBuckets,
		},
	)

	fieldChecksSuperseded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_field_checks_superseded_total",
			Help: "Field checks whose result was discarded because a newer edit started",
		},
	)
)

func init() {
	prometheus.MustRegister(skuChecksTotal, skuLookupDuration, fieldChecksSuperseded)
}

func recordSKUCheck(reason domain.SKUReason) {
	skuChecksTotal.WithLabelValues(string(reason)).Inc()
}
