// Package metrics содержит коллекторы Prometheus платформы лояльности.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsWrittenTotal считает успешные записи по сущностям и операциям.
	RecordsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_records_written_total",
		Help: "Total number of records written to the store",
	}, []string{"entity", "op"})

	// StoreErrorsTotal считает отказы хранилища по виду ошибки.
	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_store_errors_total",
		Help: "Total number of rejected store operations",
	}, []string{"entity", "kind"})

	TenantCacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_tenant_cache_requests_total",
		Help: "Tenant cache lookups by result",
	}, []string{"result"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_events_published_total",
		Help: "Domain events handed to the broker",
	}, []string{"status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loyalty_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
)

// RecordWrite отмечает успешную запись сущности.
func RecordWrite(entity, op string) {
	RecordsWrittenTotal.WithLabelValues(entity, op).Inc()
}

// RecordStoreError отмечает отказ хранилища.
func RecordStoreError(entity, kind string) {
	StoreErrorsTotal.WithLabelValues(entity, kind).Inc()
}

// RecordHTTPRequest фиксирует длительность и исход HTTP-запроса.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}
