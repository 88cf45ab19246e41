package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal     metric.Int64Counter
	HTTPRequestDuration   metric.Float64Histogram
	GeocodeRequestsTotal  metric.Int64Counter
	GeocodeRetriesTotal   metric.Int64Counter
	GeocodeFailuresTotal  metric.Int64Counter
	RouteDrawsTotal       metric.Int64Counter
	RouteDrawRetriesTotal metric.Int64Counter
	DayCacheHitsTotal     metric.Int64Counter
	DayCacheMissesTotal   metric.Int64Counter
	EnrichmentDuration    metric.Float64Histogram
	OpenSessionsGauge     metric.Int64Gauge
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("voyplan")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.GeocodeRequestsTotal, err = meter.Int64Counter(
			"geocode_requests_total",
			metric.WithDescription("Total number of geocoding lookups issued"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_requests_total: %v", err)
		}

		m.GeocodeRetriesTotal, err = meter.Int64Counter(
			"geocode_retries_total",
			metric.WithDescription("Total number of geocoding retries after timeout or empty result"),
			metric.WithUnit("{retry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_retries_total: %v", err)
		}

		m.GeocodeFailuresTotal, err = meter.Int64Counter(
			"geocode_failures_total",
			metric.WithDescription("Total number of places left without a coordinate"),
			metric.WithUnit("{failure}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_failures_total: %v", err)
		}

		m.RouteDrawsTotal, err = meter.Int64Counter(
			"route_draws_total",
			metric.WithDescription("Total number of route draw requests sent to the map provider"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_draws_total: %v", err)
		}

		m.RouteDrawRetriesTotal, err = meter.Int64Counter(
			"route_draw_retries_total",
			metric.WithDescription("Total number of route draws retried after provider rate limiting"),
			metric.WithUnit("{retry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_draw_retries_total: %v", err)
		}

		m.DayCacheHitsTotal, err = meter.Int64Counter(
			"day_cache_hits_total",
			metric.WithDescription("Total number of enriched day plans served from cache"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create day_cache_hits_total: %v", err)
		}

		m.DayCacheMissesTotal, err = meter.Int64Counter(
			"day_cache_misses_total",
			metric.WithDescription("Total number of day plans enriched from scratch"),
			metric.WithUnit("{miss}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create day_cache_misses_total: %v", err)
		}

		m.EnrichmentDuration, err = meter.Float64Histogram(
			"day_enrichment_duration_seconds",
			metric.WithDescription("Duration of full day enrichment, geocoding plus transport estimation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create day_enrichment_duration_seconds: %v", err)
		}

		m.OpenSessionsGauge, err = meter.Int64Gauge(
			"planning_sessions_open",
			metric.WithDescription("Current number of open planning sessions"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create planning_sessions_open: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
