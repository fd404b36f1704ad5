package dsstelemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracerName = "github.com/JiancunWang/klayout/pkg/dsstelemetry"

// StartSpan starts a span named for a deep shape store operation, e.g.
// "dss.create_polygon_layer", "dss.insert" or "extractor.extract". When
// tracing is disabled the returned span is a no-op, so callers can wrap
// every store operation unconditionally.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	opts := []trace.SpanStartOption{}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return tracer.Start(ctx, name, opts...)
}

// EndSpan records err on span (if non-nil) and ends it. Call via defer
// immediately after StartSpan:
//
//	ctx, span := dsstelemetry.StartSpan(ctx, "dss.insert")
//	defer func() { dsstelemetry.EndSpan(span, err) }()
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
