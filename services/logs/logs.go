// Package logs provides the central sink for structured log records with
// keyword search and error pattern analysis.
package logs

import (
	"time"
)

// Log levels accepted by the aggregator.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Record is a single structured log entry. Records are immutable once
// collected and leave the aggregator only through FIFO eviction.
type Record struct {
	Timestamp time.Time
	Level     string
	Message   string
	Source    string
	TraceID   string
	SpanID    string
	Fields    map[string]string
}

// SearchQuery filters log search results. All set fields must match.
type SearchQuery struct {
	Query   string // keyword/substring match against the message
	Level   string
	Source  string
	TraceID string
	Limit   int // defaults to 100
}

// Statistics describes the retained log population.
type Statistics struct {
	TotalCount      int
	CountsByLevel   map[string]int
	CountsBySource  map[string]int
	OldestTimestamp time.Time
	NewestTimestamp time.Time
}

// PatternCount is one recognized error signature with its frequency and an
// example message.
type PatternCount struct {
	Pattern string
	Count   int
	Example string
}
