package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation kinds.
const (
	KindQuery    = "query"
	KindMutation = "mutation"
	KindHTTP     = "http"
)

// OperationMeta describes one unit of client work for telemetry: a cache
// query, a mutation, or a single REST call.
type OperationMeta struct {
	Kind     string // query|mutation|http
	Name     string // required, e.g. "add_to_cart" or "GET /cart"
	Resource string // cache resource name, e.g. "cart"
	Actor    string // shopper|vendor|admin
}

// SpanName returns the deterministic span name.
// Format: storefront.<kind>.<resource>.<name> with empty parts skipped.
func (m OperationMeta) SpanName() string {
	name := "storefront"
	if m.Kind != "" {
		name += "." + m.Kind
	}
	if m.Resource != "" {
		name += "." + m.Resource
	}
	return name + "." + m.Name
}

// Attributes returns the telemetry attributes shared by spans and metrics.
func (m OperationMeta) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("op.name", m.Name),
	}
	if m.Kind != "" {
		attrs = append(attrs, attribute.String("op.kind", m.Kind))
	}
	if m.Resource != "" {
		attrs = append(attrs, attribute.String("op.resource", m.Resource))
	}
	if m.Actor != "" {
		attrs = append(attrs, attribute.String("op.actor", m.Actor))
	}
	return attrs
}

// Fields returns the log fields for this operation.
func (m OperationMeta) Fields() []Field {
	fields := []Field{F("op", m.Name)}
	if m.Kind != "" {
		fields = append(fields, F("kind", m.Kind))
	}
	if m.Resource != "" {
		fields = append(fields, F("resource", m.Resource))
	}
	if m.Actor != "" {
		fields = append(fields, F("actor", m.Actor))
	}
	return fields
}

// Tracer wraps OpenTelemetry tracing with operation-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	kind := trace.SpanKindInternal
	if meta.Kind == KindHTTP {
		kind = trace.SpanKindClient
	}
	attrs := append(meta.Attributes(), attribute.Bool("op.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
