package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for hrref operations
const TracerName = "github.com/willibrandon/hrref"

// Common attribute keys
const (
	AttrCategory   = attribute.Key("hrref.category")
	AttrBackend    = attribute.Key("hrref.store.backend")
	AttrOperation  = attribute.Key("hrref.operation")
	AttrCacheEvent = attribute.Key("hrref.cache.event")
	AttrRecords    = attribute.Key("hrref.records")
	AttrEntries    = attribute.Key("hrref.entries")
)

// StartResolveSpan starts a span around a reference cache resolve
func StartResolveSpan(ctx context.Context, category string) (context.Context, trace.Span) {
	return StartSpan(ctx, "refcache.resolve",
		trace.WithAttributes(
			AttrCategory.String(category),
			AttrOperation.String("resolve"),
		),
	)
}

// StartBuildSpan starts a root span for the single build of a category
// mapping, linked to the resolve that triggered it. The build outlives any
// individual caller.
func StartBuildSpan(ctx context.Context, category string, trigger trace.SpanContext) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithNewRoot(),
		trace.WithAttributes(
			AttrCategory.String(category),
			AttrOperation.String("build"),
		),
	}
	if trigger.IsValid() {
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: trigger}))
	}
	return StartSpan(ctx, "refcache.build", opts...)
}

// StartFetchSpan starts a span for a bulk category fetch
func StartFetchSpan(ctx context.Context, category string) (context.Context, trace.Span) {
	return StartSpan(ctx, "store.fetch",
		trace.WithAttributes(
			AttrCategory.String(category),
			AttrOperation.String("fetch"),
		),
	)
}

// StartListSpan starts a span for an employee listing join
func StartListSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, "employees."+operation,
		trace.WithAttributes(AttrOperation.String(operation)),
	)
}

// RecordCacheEvent records the cache outcome on the current span
func RecordCacheEvent(ctx context.Context, event string) {
	SetAttributes(ctx, AttrCacheEvent.String(event))
}

// RecordRetry records a retry attempt on the current span
func RecordRetry(ctx context.Context, attempt int, err error) {
	attrs := []attribute.KeyValue{attribute.Int("retry.attempt", attempt)}
	if err != nil {
		attrs = append(attrs, attribute.String("retry.error", err.Error()))
	}
	trace.SpanFromContext(ctx).AddEvent("retry", trace.WithAttributes(attrs...))
}

// EndSpanWithError ends a span, marking it failed when err is non-nil
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
