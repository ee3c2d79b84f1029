package tracing

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/instantcocoa/argus/pkg/oberr"
)

// System assembles spans reported by independent producers into coherent,
// queryable traces. All containers are guarded by a single mutex held only
// for in-memory mutation; queries copy under the lock and compute outside
// it.
type System struct {
	mu     sync.RWMutex
	spans  map[string]*Span           // spanID -> span
	traces map[string][]string        // traceID -> span IDs in insertion order
	roots  map[string]string          // traceID -> root span ID
	stats  map[string]*OperationStats // service + ":" + operation
	logger *slog.Logger
}

// NewSystem creates an empty tracing system.
func NewSystem(logger *slog.Logger) *System {
	return &System{
		spans:  make(map[string]*Span),
		traces: make(map[string][]string),
		roots:  make(map[string]string),
		stats:  make(map[string]*OperationStats),
		logger: logger.With("component", "tracing"),
	}
}

// StartTrace creates the root span of a new trace. A fresh trace ID is
// generated when traceID is empty.
func (s *System) StartTrace(traceID, operationName, serviceName string) (Span, error) {
	if operationName == "" {
		return Span{}, oberr.Invalid("operation_name", "must not be empty")
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}

	span := &Span{
		TraceID:       traceID,
		SpanID:        uuid.NewString(),
		OperationName: operationName,
		ServiceName:   serviceName,
		Kind:          KindServer,
		StartTime:     time.Now(),
		Tags:          make(map[string]string),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.traces[traceID]; exists {
		return Span{}, oberr.Invalid("trace_id", "trace already started: "+traceID)
	}

	s.spans[span.SpanID] = span
	s.traces[traceID] = []string{span.SpanID}
	s.roots[traceID] = span.SpanID

	return span.clone(), nil
}

// CreateSpan creates a child span within an existing trace. An empty
// parentSpanID attaches the span to the trace root.
func (s *System) CreateSpan(traceID, operationName, parentSpanID, serviceName string, kind SpanKind) (Span, error) {
	if operationName == "" {
		return Span{}, oberr.Invalid("operation_name", "must not be empty")
	}
	if kind == "" {
		kind = KindInternal
	}

	span := &Span{
		TraceID:       traceID,
		SpanID:        uuid.NewString(),
		ParentSpanID:  parentSpanID,
		OperationName: operationName,
		ServiceName:   serviceName,
		Kind:          kind,
		StartTime:     time.Now(),
		Tags:          make(map[string]string),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.traces[traceID]; !exists {
		return Span{}, oberr.NotFound("trace", traceID)
	}
	if span.ParentSpanID == "" {
		span.ParentSpanID = s.roots[traceID]
	}

	s.spans[span.SpanID] = span
	s.traces[traceID] = append(s.traces[traceID], span.SpanID)

	return span.clone(), nil
}

// FinishSpan sets the span end time, merges tags, records the error message
// when statusCode is nonzero, and feeds the per-operation aggregates.
func (s *System) FinishSpan(spanID string, statusCode int, errMsg string, tags map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	span, ok := s.spans[spanID]
	if !ok {
		return oberr.NotFound("span", spanID)
	}
	if span.Finished() {
		return oberr.Invalid("span_id", "span already finished: "+spanID)
	}

	span.EndTime = time.Now()
	if span.EndTime.Before(span.StartTime) {
		span.EndTime = span.StartTime
	}
	span.StatusCode = statusCode
	if statusCode != 0 {
		span.Error = errMsg
	}
	for k, v := range tags {
		span.Tags[k] = v
	}

	key := span.ServiceName + ":" + span.OperationName
	st, ok := s.stats[key]
	if !ok {
		st = &OperationStats{ServiceName: span.ServiceName, OperationName: span.OperationName}
		s.stats[key] = st
	}
	st.Count++
	st.TotalDuration += span.EndTime.Sub(span.StartTime)
	if statusCode != 0 {
		st.ErrorCount++
		s.logger.Debug("span finished with error",
			"span_id", spanID,
			"operation", span.OperationName,
			"status_code", statusCode,
		)
	}

	return nil
}

// AddSpanLog appends a timestamped entry to the span's log list. Allowed
// before or after the span is finished.
func (s *System) AddSpanLog(spanID, message, level string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	span, ok := s.spans[spanID]
	if !ok {
		return oberr.NotFound("span", spanID)
	}

	entry := SpanLog{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
	if fields != nil {
		entry.Fields = make(map[string]string, len(fields))
		for k, v := range fields {
			entry.Fields[k] = v
		}
	}
	span.Logs = append(span.Logs, entry)
	return nil
}

// GetTrace returns detached copies of all spans in the trace, in insertion
// order. Returned spans never observe later mutations of the live trace.
func (s *System) GetTrace(traceID string) ([]Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.traces[traceID]
	if !ok {
		return nil, oberr.NotFound("trace", traceID)
	}

	spans := make([]Span, 0, len(ids))
	for _, id := range ids {
		spans = append(spans, s.spans[id].clone())
	}
	return spans, nil
}

// TraceDuration returns max(end) - min(start) across the trace's spans in
// microseconds. Unfinished spans contribute only their start time.
func (s *System) TraceDuration(traceID string) (int64, error) {
	spans, err := s.GetTrace(traceID)
	if err != nil {
		return 0, err
	}

	var minStart, maxEnd time.Time
	for i := range spans {
		sp := &spans[i]
		if minStart.IsZero() || sp.StartTime.Before(minStart) {
			minStart = sp.StartTime
		}
		end := sp.EndTime
		if end.IsZero() {
			end = sp.StartTime
		}
		if end.After(maxEnd) {
			maxEnd = end
		}
	}
	return maxEnd.Sub(minStart).Microseconds(), nil
}

// RemoveTrace evicts a trace and all of its spans, releasing its
// contribution to memory. Aggregated operation statistics are kept.
func (s *System) RemoveTrace(traceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.traces[traceID] {
		delete(s.spans, id)
	}
	delete(s.traces, traceID)
	delete(s.roots, traceID)
}

// RemoveExpired evicts traces whose most recent span activity is older
// than the retention window relative to now, returning the number of
// traces removed. Each trace is inspected under its own short critical
// section so producers are never blocked across the whole store.
func (s *System) RemoveExpired(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)
	removed := 0
	for _, traceID := range s.TraceIDs() {
		s.mu.Lock()
		var last time.Time
		for _, id := range s.traces[traceID] {
			sp := s.spans[id]
			if sp.StartTime.After(last) {
				last = sp.StartTime
			}
			if sp.EndTime.After(last) {
				last = sp.EndTime
			}
		}
		if !last.IsZero() && last.Before(cutoff) {
			for _, id := range s.traces[traceID] {
				delete(s.spans, id)
			}
			delete(s.traces, traceID)
			delete(s.roots, traceID)
			removed++
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		s.logger.Debug("expired traces removed", "count", removed)
	}
	return removed
}

// TraceIDs returns the IDs of all retained traces.
func (s *System) TraceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.traces))
	for id := range s.traces {
		ids = append(ids, id)
	}
	return ids
}

// GetPerformanceSummary exposes the running per-operation aggregates
// without rescanning spans, ordered slowest first.
func (s *System) GetPerformanceSummary() PerformanceSummary {
	s.mu.RLock()
	ops := make([]OperationStats, 0, len(s.stats))
	for _, st := range s.stats {
		ops = append(ops, *st)
	}
	s.mu.RUnlock()

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].AverageDuration() > ops[j].AverageDuration()
	})
	return PerformanceSummary{Operations: ops}
}
