package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartWorkloadSpan starts a span covering one workload's full benchmark run,
// calibration through measurement.
func StartWorkloadSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "bench "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("nanofire.workload", name),
	)
	return ctx, span
}

// RecordPhase marks a phase transition as a span event, so the calibrate,
// warm-up, and measure boundaries are visible on the trace timeline.
func RecordPhase(span trace.Span, phase string) {
	span.AddEvent(phase)
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
