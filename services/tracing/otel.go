package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Replay re-emits a trace through an OpenTelemetry TracerProvider,
// preserving timestamps, parent/child structure, status, tags, and span
// logs (as events). Unfinished spans are skipped, but their finished
// descendants are still emitted. This is the read-path bridge for callers
// that want collected traces in an OpenTelemetry pipeline.
func (s *System) Replay(ctx context.Context, tp trace.TracerProvider, traceID string) error {
	forest, err := s.GetTraceTree(traceID)
	if err != nil {
		return err
	}

	tracer := tp.Tracer("github.com/instantcocoa/argus/services/tracing")
	for _, root := range forest {
		replayNode(ctx, tracer, root)
	}
	return nil
}

func replayNode(ctx context.Context, tracer trace.Tracer, node *SpanNode) {
	sp := node.Span
	if !sp.Finished() {
		for _, c := range node.Children {
			replayNode(ctx, tracer, c)
		}
		return
	}

	cctx, ospan := tracer.Start(ctx, sp.OperationName,
		trace.WithTimestamp(sp.StartTime),
		trace.WithSpanKind(otelKind(sp.Kind)),
	)

	attrs := make([]attribute.KeyValue, 0, len(sp.Tags)+1)
	attrs = append(attrs, attribute.String("service.name", sp.ServiceName))
	for k, v := range sp.Tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	ospan.SetAttributes(attrs...)

	if sp.StatusCode != 0 {
		ospan.SetStatus(codes.Error, sp.Error)
	} else {
		ospan.SetStatus(codes.Ok, "")
	}

	for _, l := range sp.Logs {
		ospan.AddEvent(l.Message,
			trace.WithTimestamp(l.Timestamp),
			trace.WithAttributes(attribute.String("level", l.Level)),
		)
	}

	for _, c := range node.Children {
		replayNode(cctx, tracer, c)
	}

	ospan.End(trace.WithTimestamp(sp.EndTime))
}

func otelKind(k SpanKind) trace.SpanKind {
	switch k {
	case KindClient:
		return trace.SpanKindClient
	case KindServer:
		return trace.SpanKindServer
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}
