// internal/common/observability/observability.go
package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers of the process.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	scoreHistogram otelmetric.Int64Histogram
}

type options struct {
	registerer     promclient.Registerer
	spanProcessors []sdktrace.SpanProcessor
	version        string
}

// Option customises New.
type Option func(*options)

// WithRegisterer exports metrics to reg instead of the default Prometheus registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches a span processor, e.g. a batch exporter or a test recorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithVersion sets the service.version resource attribute.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// New builds the providers and registers them globally. It never fails: when the
// Prometheus exporter cannot be created, metrics are dropped and tracing still works.
func New(serviceName string, opts ...Option) (*Observability, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", serviceName)}
	if o.version != "" {
		attrs = append(attrs, attribute.String("service.version", o.version))
	}
	res := resource.NewSchemaless(attrs...)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, sp := range o.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)

	obs := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	var exporterOpts []otelprom.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, otelprom.WithRegisterer(o.registerer))
	}
	exporter, err := otelprom.New(exporterOpts...)
	if err != nil {
		return obs, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	obs.meterProvider = provider
	obs.meter = meter

	obs.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	obs.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	obs.scoreHistogram, _ = meter.Int64Histogram(
		"program.match.score",
		otelmetric.WithDescription("Qualification scores computed per program"),
		otelmetric.WithExplicitBucketBoundaries(0, 20, 40, 60, 80, 100),
	)

	return obs, nil
}

// StartSpan starts a span named name under ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordQualification records one computed score.
func (o *Observability) RecordQualification(ctx context.Context, score int, qualifies bool) {
	if o != nil && o.scoreHistogram != nil {
		o.scoreHistogram.Record(ctx, int64(score), otelmetric.WithAttributes(
			attribute.Bool("qualifies", qualifies),
		))
	}
}

// Shutdown flushes and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var firstErr error
	if o.tracerProvider != nil {
		firstErr = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
