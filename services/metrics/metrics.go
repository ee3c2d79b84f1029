// Package metrics provides the time-windowed metric collection service.
package metrics

import (
	"time"
)

// MetricType classifies how a metric value should be interpreted.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
	TypeSummary   MetricType = "summary"
)

// Metric represents a single point-in-time measurement. Metrics are
// immutable once recorded; they leave the collector only through
// retention cleanup.
type Metric struct {
	Name      string
	Type      MetricType
	Value     float64
	Timestamp time.Time
	Source    string
	Tags      map[string]string
	Unit      string
}

// ExportRecord is the serializable report form of a metric.
type ExportRecord struct {
	MetricName string            `json:"metric_name" yaml:"metric_name"`
	Value      float64           `json:"value" yaml:"value"`
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	Source     string            `json:"source" yaml:"source"`
	Tags       map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Summary describes the retained metric population.
type Summary struct {
	TotalCount      int
	UniqueNames     int
	CountsByType    map[MetricType]int
	OldestTimestamp time.Time
	NewestTimestamp time.Time
}
