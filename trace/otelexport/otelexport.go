// Package otelexport bridges the runtime's span trees to OpenTelemetry. The
// exporter replays a finished tree onto an otel tracer with the original
// timestamps, so runs appear in any OTLP-compatible backend without the
// runtime depending on otel in its hot path.
package otelexport

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentloop/trace"
)

const tracerName = "github.com/hupe1980/agentloop"

// Options configure the otel bridge exporter.
type Options struct {
	// TracerProvider defaults to the globally registered provider.
	TracerProvider oteltrace.TracerProvider
}

// Exporter implements trace.Exporter by replaying span trees onto an
// OpenTelemetry tracer.
type Exporter struct {
	tracer oteltrace.Tracer
}

// New constructs an Exporter against the global (or supplied) tracer provider.
func New(optFns ...func(o *Options)) *Exporter {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Exporter{tracer: tp.Tracer(tracerName)}
}

// Export implements trace.Exporter.
func (e *Exporter) Export(root *trace.SpanSnapshot) {
	if root == nil {
		return
	}
	e.replay(context.Background(), root)
}

func (e *Exporter) replay(ctx context.Context, snap *trace.SpanSnapshot) {
	spanCtx, span := e.tracer.Start(ctx, snap.Name,
		oteltrace.WithTimestamp(snap.StartTime),
		oteltrace.WithAttributes(toAttributes(snap)...),
	)

	for _, child := range snap.Children {
		e.replay(spanCtx, child)
	}

	switch snap.Status {
	case trace.StatusOK:
		span.SetStatus(codes.Ok, "")
	case trace.StatusError:
		span.SetStatus(codes.Error, snap.StatusMessage)
	}

	end := snap.EndTime
	if end.IsZero() {
		// Open span in a partial trace of a failed run.
		end = snap.StartTime
	}
	span.End(oteltrace.WithTimestamp(end))
}

func toAttributes(snap *trace.SpanSnapshot) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(snap.Attributes)+2)
	attrs = append(attrs,
		attribute.String("agentloop.span.kind", string(snap.Kind)),
		attribute.String("agentloop.span.id", snap.ID),
	)
	for k, v := range snap.Attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
