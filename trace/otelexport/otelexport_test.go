package otelexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentloop/trace"
)

func newRecordingExporter() (*Exporter, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	exp := New(func(o *Options) { o.TracerProvider = tp })
	return exp, recorder
}

func TestExport_ReplaysTreeWithOriginalTimestamps(t *testing.T) {
	exp, recorder := newRecordingExporter()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	root := &trace.SpanSnapshot{
		ID:        "root-id",
		Kind:      trace.KindRun,
		Name:      "run picker",
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		Status:    trace.StatusOK,
		Children: []*trace.SpanSnapshot{
			{
				ID:        "turn-id",
				Kind:      trace.KindTurn,
				Name:      "turn 1 (picker)",
				StartTime: start.Add(100 * time.Millisecond),
				EndTime:   start.Add(900 * time.Millisecond),
				Status:    trace.StatusOK,
				Attributes: map[string]any{
					"agent": "picker",
					"turn":  1,
				},
			},
		},
	}

	exp.Export(root)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	// Children end before their parent, so the turn span is recorded first.
	turnSpan, runSpan := spans[0], spans[1]
	assert.Equal(t, "turn 1 (picker)", turnSpan.Name())
	assert.Equal(t, "run picker", runSpan.Name())

	assert.Equal(t, start, runSpan.StartTime())
	assert.Equal(t, start.Add(2*time.Second), runSpan.EndTime())
	assert.Equal(t, codes.Ok, runSpan.Status().Code)

	assert.Equal(t, runSpan.SpanContext().TraceID(), turnSpan.SpanContext().TraceID())
	assert.Equal(t, runSpan.SpanContext().SpanID(), turnSpan.Parent().SpanID())

	assert.Contains(t, turnSpan.Attributes(), attribute.String("agent", "picker"))
	assert.Contains(t, turnSpan.Attributes(), attribute.Int("turn", 1))
	assert.Contains(t, turnSpan.Attributes(), attribute.String("agentloop.span.kind", "turn"))
}

func TestExport_ErrorStatus(t *testing.T) {
	exp, recorder := newRecordingExporter()

	start := time.Now().UTC()
	exp.Export(&trace.SpanSnapshot{
		ID:            "root-id",
		Kind:          trace.KindRun,
		Name:          "run doomed",
		StartTime:     start,
		EndTime:       start.Add(time.Second),
		Status:        trace.StatusError,
		StatusMessage: "provider failure",
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "provider failure", spans[0].Status().Description)
}

func TestExport_OpenSpanInPartialTrace(t *testing.T) {
	exp, recorder := newRecordingExporter()

	start := time.Now().UTC()
	exp.Export(&trace.SpanSnapshot{
		ID:        "root-id",
		Kind:      trace.KindRun,
		Name:      "run partial",
		StartTime: start,
		EndTime:   start.Add(time.Second),
		Status:    trace.StatusError,
		Children: []*trace.SpanSnapshot{
			{
				ID:        "turn-id",
				Kind:      trace.KindTurn,
				Name:      "turn 1",
				StartTime: start.Add(10 * time.Millisecond),
				// Never ended; zero EndTime must not produce a negative duration.
				Status: trace.StatusUnset,
			},
		},
	})

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	turnSpan := spans[0]
	assert.Equal(t, turnSpan.StartTime(), turnSpan.EndTime())
}

func TestExport_NilSnapshot(t *testing.T) {
	exp, recorder := newRecordingExporter()
	exp.Export(nil)
	assert.Empty(t, recorder.Ended())
}
