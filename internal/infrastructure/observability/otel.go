package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/sixassist/cityassist"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	DBQueryDuration   metric.Float64Histogram
	CacheHitCount     metric.Int64Counter
	CacheMissCount    metric.Int64Counter
	SourceFetchCount  metric.Int64Counter
	SourceFailures    metric.Int64Counter
	DuplicatesDropped metric.Int64Counter
	SearchFallbacks   metric.Int64Counter
	GeocodeAttempts   metric.Int64Counter
	GenerateDuration  metric.Float64Histogram
}

// Setup initializes OpenTelemetry tracing and metrics export
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics. Instruments created before
// Setup report through the global delegating provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RequestCount, "http.server.request.count", "Number of HTTP requests"},
		{&m.CacheHitCount, "cache.hit.count", "Number of cache hits"},
		{&m.CacheMissCount, "cache.miss.count", "Number of cache misses"},
		{&m.SourceFetchCount, "establishments.source.fetch.count", "Records returned per establishment source"},
		{&m.SourceFailures, "establishments.source.failure.count", "Establishment source failures"},
		{&m.DuplicatesDropped, "establishments.dedup.dropped.count", "Records discarded as duplicates"},
		{&m.SearchFallbacks, "search.fallback.count", "Searches answered by keyword fallback"},
		{&m.GeocodeAttempts, "geocode.attempt.count", "Geocoding provider queries"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.RequestDuration, "http.server.request.duration", "HTTP request duration in milliseconds"},
		{&m.DBQueryDuration, "db.query.duration", "Database query duration in milliseconds"},
		{&m.GenerateDuration, "gemini.generate.duration", "Generative model call duration in milliseconds"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("ms")); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// The Record helpers below accept a nil *Metrics so callers can run
// without telemetry (tests, the refresh CLI).

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.RequestCount.Add(ctx, 1, attrs)
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordDBMetric records a database operation metric
func RecordDBMetric(ctx context.Context, metrics *Metrics, operation string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.DBQueryDuration.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(attribute.String("db.operation", operation)))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, cache string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, cache string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}

// RecordSourceFetch records the outcome of one establishment source fetch
func RecordSourceFetch(ctx context.Context, metrics *Metrics, source string, count int, err error) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	if err != nil {
		metrics.SourceFailures.Add(ctx, 1, attrs)
		return
	}
	metrics.SourceFetchCount.Add(ctx, int64(count), attrs)
}

// RecordDuplicates records records discarded during deduplication
func RecordDuplicates(ctx context.Context, metrics *Metrics, dropped int) {
	if metrics == nil || dropped == 0 {
		return
	}
	metrics.DuplicatesDropped.Add(ctx, int64(dropped))
}

// RecordSearchFallback records a search answered by the keyword fallback
func RecordSearchFallback(ctx context.Context, metrics *Metrics, reason string) {
	if metrics == nil {
		return
	}
	metrics.SearchFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordGeocodeAttempt records one geocoding provider query
func RecordGeocodeAttempt(ctx context.Context, metrics *Metrics, provider string, found bool) {
	if metrics == nil {
		return
	}
	metrics.GeocodeAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("found", found),
	))
}

// RecordGenerate records the latency of a generative model call
func RecordGenerate(ctx context.Context, metrics *Metrics, model string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.GenerateDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("error", err != nil),
	))
}
