package tracing

import (
	"context"
	"testing"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/instantcocoa/argus/pkg/oberr"
	"github.com/instantcocoa/argus/pkg/testutil"
)

func TestReplay(t *testing.T) {
	s := NewSystem(testutil.DiscardLogger())
	root, _ := s.StartTrace("", "request", "gateway")
	child, _ := s.CreateSpan(root.TraceID, "db_query", root.SpanID, "db", KindClient)
	s.AddSpanLog(child.SpanID, "query started", "DEBUG", nil)

	time.Sleep(time.Millisecond)
	s.FinishSpan(child.SpanID, 1, "connection refused", nil)
	s.FinishSpan(root.SpanID, 0, "", map[string]string{"http.route": "/v1/items"})

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	if err := s.Replay(context.Background(), tp, root.TraceID); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("replayed spans = %d, want 2", len(ended))
	}

	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, sp := range ended {
		byName[sp.Name()] = sp
	}

	req, ok := byName["request"]
	if !ok {
		t.Fatal("request span not replayed")
	}
	dbq, ok := byName["db_query"]
	if !ok {
		t.Fatal("db_query span not replayed")
	}

	// Parent/child structure survives the replay.
	if dbq.Parent().SpanID() != req.SpanContext().SpanID() {
		t.Error("db_query parent does not match request span")
	}
	if dbq.SpanKind() != trace.SpanKindClient {
		t.Errorf("db_query kind = %v, want client", dbq.SpanKind())
	}

	// Timestamps are taken from the collected spans, not replay time.
	if !dbq.StartTime().Before(dbq.EndTime()) {
		t.Error("db_query start not before end")
	}

	if dbq.Status().Code != otelcodes.Error {
		t.Errorf("db_query status = %v, want error", dbq.Status().Code)
	}
	if dbq.Status().Description != "connection refused" {
		t.Errorf("db_query status description = %q, want %q", dbq.Status().Description, "connection refused")
	}
	if req.Status().Code != otelcodes.Ok {
		t.Errorf("request status = %v, want ok", req.Status().Code)
	}

	events := dbq.Events()
	if len(events) != 1 {
		t.Fatalf("db_query events = %d, want 1", len(events))
	}
	if events[0].Name != "query started" {
		t.Errorf("event name = %q, want %q", events[0].Name, "query started")
	}
}

func TestReplay_SkipsUnfinishedSpans(t *testing.T) {
	s := NewSystem(testutil.DiscardLogger())
	root, _ := s.StartTrace("", "request", "gateway")
	child, _ := s.CreateSpan(root.TraceID, "db_query", root.SpanID, "db", KindClient)
	s.FinishSpan(child.SpanID, 0, "", nil)
	// Root left unfinished.

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	if err := s.Replay(context.Background(), tp, root.TraceID); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("replayed spans = %d, want 1", len(ended))
	}
	if ended[0].Name() != "db_query" {
		t.Errorf("replayed span = %q, want %q", ended[0].Name(), "db_query")
	}
}

func TestReplay_UnknownTrace(t *testing.T) {
	s := NewSystem(testutil.DiscardLogger())
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	if err := s.Replay(context.Background(), tp, "nonexistent"); !oberr.IsNotFound(err) {
		t.Errorf("Replay() error = %v, want not-found error", err)
	}
}
