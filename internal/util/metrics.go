package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of orders confirmed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order operations",
	}, []string{"reason"})

	OrderConfirmationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_confirmations_rejected_total",
		Help: "Total number of rejected confirmation attempts",
	}, []string{"reason"})

	CatalogImportsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_imports_requested_total",
		Help: "Total number of catalog imports requested",
	})

	CatalogImportsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_imports_completed_total",
		Help: "Total number of catalog imports completed",
	})

	CatalogImportsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_imports_failed_total",
		Help: "Total number of failed catalog imports",
	}, []string{"reason"})

	CatalogImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_import_duration_seconds",
		Help:    "Duration of catalog feed loads",
		Buckets: prometheus.DefBuckets,
	})

	ProductCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_cache_hits_total",
		Help: "Total number of product cache hits",
	})

	ProductCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_cache_misses_total",
		Help: "Total number of product cache misses",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
