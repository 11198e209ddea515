package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for business spans
const TracerName = "staydesk"

// Span attribute keys shared by the sync, export and relay spans
const (
	AttrGeneration = attribute.Key("staydesk.sync.generation")
	AttrOutcome    = attribute.Key("staydesk.sync.outcome")
	AttrBookingID  = attribute.Key("staydesk.booking_id")
	AttrFormat     = attribute.Key("staydesk.export.format")
	AttrRecipients = attribute.Key("staydesk.push.recipients")
)

// StartSpan starts an internal span on the global provider, so spans are
// no-ops until NewTracerProvider installs an exporter.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, opts...)
}

// StartServiceSpan names the span {service}.{method}, e.g. "sync.refresh"
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, attrs...)
}

// Finish sets the span status from err and ends it. Call it once, typically
// deferred with a pointer to the named error result.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the hex trace id of the span in ctx, or "" without one
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
