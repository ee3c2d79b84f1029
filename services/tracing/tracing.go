// Package tracing provides span assembly and trace tree reconstruction for
// spans reported by independent producers.
package tracing

import (
	"time"
)

// SpanKind describes the role a span plays in a trace.
type SpanKind string

const (
	KindClient   SpanKind = "client"
	KindServer   SpanKind = "server"
	KindInternal SpanKind = "internal"
	KindProducer SpanKind = "producer"
	KindConsumer SpanKind = "consumer"
)

// SpanLog is a timestamped entry attached to a span.
type SpanLog struct {
	Timestamp time.Time
	Level     string
	Message   string
	Fields    map[string]string
}

// Span represents a single timed unit of work within a trace. EndTime is
// zero until the span is finished.
type Span struct {
	TraceID       string
	SpanID        string
	ParentSpanID  string
	OperationName string
	ServiceName   string
	Kind          SpanKind
	StartTime     time.Time
	EndTime       time.Time
	StatusCode    int // 0 = ok, nonzero = error
	Error         string
	Tags          map[string]string
	Logs          []SpanLog
}

// clone returns a copy sharing no mutable state with the receiver, so
// callers can hold it without observing later FinishSpan or AddSpanLog
// mutations.
func (s *Span) clone() Span {
	c := *s
	if s.Tags != nil {
		c.Tags = make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			c.Tags[k] = v
		}
	}
	if len(s.Logs) > 0 {
		c.Logs = append([]SpanLog(nil), s.Logs...)
	}
	return c
}

// Finished reports whether the span has been finished.
func (s *Span) Finished() bool {
	return !s.EndTime.IsZero()
}

// Duration returns the span duration, or zero for unfinished spans.
func (s *Span) Duration() time.Duration {
	if !s.Finished() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// SpanNode is a span with its resolved children, as produced by
// GetTraceTree.
type SpanNode struct {
	Span     Span
	Children []*SpanNode
}

// OperationStats holds the running aggregate for one (service, operation)
// pair, updated as spans finish.
type OperationStats struct {
	ServiceName   string
	OperationName string
	Count         int
	ErrorCount    int
	TotalDuration time.Duration
}

// AverageDuration returns the mean duration of finished spans.
func (o OperationStats) AverageDuration() time.Duration {
	if o.Count == 0 {
		return 0
	}
	return o.TotalDuration / time.Duration(o.Count)
}

// ErrorRate returns the fraction of finished spans with a nonzero status.
func (o OperationStats) ErrorRate() float64 {
	if o.Count == 0 {
		return 0
	}
	return float64(o.ErrorCount) / float64(o.Count)
}

// PerformanceSummary exposes the per-operation aggregates.
type PerformanceSummary struct {
	Operations []OperationStats // ordered slowest first by average duration
}

// SlowestOperation returns the operation with the highest average duration.
func (p PerformanceSummary) SlowestOperation() (OperationStats, bool) {
	if len(p.Operations) == 0 {
		return OperationStats{}, false
	}
	return p.Operations[0], true
}

// HighestErrorRate returns the operation with the highest error rate.
func (p PerformanceSummary) HighestErrorRate() (OperationStats, bool) {
	var worst OperationStats
	found := false
	for _, op := range p.Operations {
		if !found || op.ErrorRate() > worst.ErrorRate() {
			worst = op
			found = true
		}
	}
	return worst, found
}
