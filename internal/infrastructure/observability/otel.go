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

const instrumentationName = "github.com/medapp/medicine-catalog"

// Metrics holds the classification metrics
type Metrics struct {
	RecordsClassified  metric.Int64Counter
	FallbackCount      metric.Int64Counter
	Score              metric.Int64Histogram
	ReclassifyChanges  metric.Int64Counter
	ReclassifyDuration metric.Float64Histogram
}

// Setup initializes OpenTelemetry tracing and metrics exporters plus Go runtime
// instrumentation. The returned function flushes and stops both providers.
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
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
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

// InitMetrics initializes metrics on the global meter provider
func InitMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(instrumentationName))
}

// NewMetrics creates the instruments on the given meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	recordsClassified, err := meter.Int64Counter(
		"classifier.records.classified",
		metric.WithDescription("Number of records classified"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCount, err := meter.Int64Counter(
		"classifier.fallback.count",
		metric.WithDescription("Number of records that matched no category keyword"),
	)
	if err != nil {
		return nil, err
	}

	score, err := meter.Int64Histogram(
		"classifier.score",
		metric.WithDescription("Winning category score per record"),
	)
	if err != nil {
		return nil, err
	}

	changes, err := meter.Int64Counter(
		"reclassify.changes",
		metric.WithDescription("Number of medicines whose category changed"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"reclassify.duration",
		metric.WithDescription("Reclassification run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RecordsClassified:  recordsClassified,
		FallbackCount:      fallbackCount,
		Score:              score,
		ReclassifyChanges:  changes,
		ReclassifyDuration: duration,
	}, nil
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

// RecordClassification records one classified record. Nil metrics are ignored.
func RecordClassification(ctx context.Context, metrics *Metrics, categorySlug string, score int, fallback bool) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("category", categorySlug))
	metrics.RecordsClassified.Add(ctx, 1, attrs)
	metrics.Score.Record(ctx, int64(score), attrs)
	if fallback {
		metrics.FallbackCount.Add(ctx, 1)
	}
}

// RecordCategoryChange records a persisted category change
func RecordCategoryChange(ctx context.Context, metrics *Metrics, from, to string) {
	if metrics == nil {
		return
	}
	metrics.ReclassifyChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category.from", from),
		attribute.String("category.to", to),
	))
}

// RecordReclassifyRun records the duration of a reclassification run
func RecordReclassifyRun(ctx context.Context, metrics *Metrics, scope string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.ReclassifyDuration.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(attribute.String("scope", scope)))
}
