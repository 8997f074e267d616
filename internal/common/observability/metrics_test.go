package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability

	ctx, span := o.StartSpan(context.Background(), "pipeline", attribute.String("source", "Swiggy"))
	require.NotNil(t, ctx)
	span.End()

	o.RecordComparison(ctx, "matched", false)
	o.RecordComparisonDuration(ctx, time.Second, "matched")
	o.RecordJobProcessed(ctx, "completed")
	o.RecordJobDuration(ctx, time.Second, "completed")
	o.Shutdown()
}

func TestNewWithOptions_TracingNeedsEndpoint(t *testing.T) {
	_, err := newTracerProvider("svc", "")
	assert.Error(t, err)
}

func TestNewWithOptions_Tracing(t *testing.T) {
	o := NewWithOptions(Options{
		ServiceName:     "dishprice-test",
		TracingEnabled:  true,
		TracingEndpoint: "http://127.0.0.1:1/api/traces",
	})
	require.NotNil(t, o)
	defer o.Shutdown()

	require.NotNil(t, o.tracer)
	_, span := o.StartSpan(context.Background(), "compare")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	o.RecordComparison(context.Background(), "fallback_note", true)
}
