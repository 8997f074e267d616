package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "dishprice-workers"

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	jobCounter         otelmetric.Int64Counter
	jobDuration        otelmetric.Float64Histogram
	comparisonCounter  otelmetric.Int64Counter
	comparisonDuration otelmetric.Float64Histogram
}

// Options selects optional exporters.
type Options struct {
	ServiceName     string
	TracingEnabled  bool
	TracingEndpoint string
}

func New(serviceName string) *Observability {
	return NewWithOptions(Options{ServiceName: serviceName})
}

// NewWithOptions wires the Prometheus metric exporter and, when enabled, a
// Jaeger span exporter. Exporter failures are logged and leave that half as a
// no-op.
func NewWithOptions(opts Options) *Observability {
	o := &Observability{}

	if opts.TracingEnabled {
		tp, err := newTracerProvider(opts.ServiceName, opts.TracingEndpoint)
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(instrumentationName)
		}
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(opts.ServiceName)

	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	o.comparisonCounter, _ = meter.Int64Counter(
		"comparisons.produced",
		otelmetric.WithDescription("Number of comparisons produced"),
	)

	o.comparisonDuration, _ = meter.Float64Histogram(
		"comparisons.duration",
		otelmetric.WithDescription("Comparison duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	return o
}

// StartSpan starts a span on the configured tracer, falling back to the
// global provider (a no-op unless tracing is enabled).
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordComparison counts a comparison by its shape (matched or fallback_note)
// and whether the degraded advisory was attached.
func (o *Observability) RecordComparison(ctx context.Context, outcome string, degraded bool) {
	if o != nil && o.comparisonCounter != nil {
		o.comparisonCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.Bool("degraded", degraded),
		))
	}
}

func (o *Observability) RecordComparisonDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o != nil && o.comparisonDuration != nil {
		o.comparisonDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
