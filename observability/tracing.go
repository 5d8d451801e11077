package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RuntimeTracerName identifies spans produced by transaction execution.
const RuntimeTracerName = "gitbounty/runtime"

// RuntimeTracer returns the tracer from the globally installed provider. With
// no provider configured the spans are no-ops.
func RuntimeTracer() trace.Tracer {
	return otel.Tracer(RuntimeTracerName)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
