package metrics

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/instantcocoa/argus/pkg/oberr"
)

// Collector ingests point-in-time measurements and answers bounded-window
// queries. Entries older than the retention window are discarded from the
// front of each per-name series, so cleanup is O(1) amortized per expired
// entry.
type Collector struct {
	mu        sync.RWMutex
	retention time.Duration
	series    map[string][]Metric // name -> time-ordered points
	logger    *slog.Logger
}

// NewCollector creates a collector retaining metrics for the given window.
func NewCollector(retention time.Duration, logger *slog.Logger) *Collector {
	return &Collector{
		retention: retention,
		series:    make(map[string][]Metric),
		logger:    logger.With("component", "metrics"),
	}
}

// copyTags detaches a tag map so stored and returned metrics share no
// mutable state with callers.
func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	c := make(map[string]string, len(tags))
	for k, v := range tags {
		c[k] = v
	}
	return c
}

// Record stores a measurement. The timestamp defaults to now and the type
// defaults to gauge. Expired entries for the same name are trimmed on the
// way in, amortizing retention cleanup across writes.
func (c *Collector) Record(m Metric) error {
	if m.Name == "" {
		return oberr.Invalid("name", "must not be empty")
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return oberr.Invalid("value", "must be a finite number")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	if m.Type == "" {
		m.Type = TypeGauge
	}
	m.Tags = copyTags(m.Tags)

	cutoff := time.Now().Add(-c.retention)

	c.mu.Lock()
	defer c.mu.Unlock()

	s := append(c.series[m.Name], m)
	// Producers occasionally report out of order; bubble the new point back
	// to keep the series time-sorted.
	for i := len(s) - 1; i > 0 && s[i].Timestamp.Before(s[i-1].Timestamp); i-- {
		s[i], s[i-1] = s[i-1], s[i]
	}
	for len(s) > 0 && s[0].Timestamp.Before(cutoff) {
		s = s[1:]
	}
	c.series[m.Name] = s

	return nil
}

// GetMetricValue returns the most recent value recorded for the metric.
func (c *Collector) GetMetricValue(name string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.series[name]
	if len(s) == 0 {
		return 0, oberr.NotFound("metric", name)
	}
	return s[len(s)-1].Value, nil
}

// GetMetricsBySource returns the chronological sequence of metrics recorded
// by the given source.
func (c *Collector) GetMetricsBySource(source string) []Metric {
	c.mu.RLock()
	var results []Metric
	for _, s := range c.series {
		for _, m := range s {
			if m.Source == source {
				m.Tags = copyTags(m.Tags)
				results = append(results, m)
			}
		}
	}
	c.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})
	return results
}

// GetSummary returns totals, per-type counts, and the covered time span.
func (c *Collector) GetSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := Summary{
		CountsByType: make(map[MetricType]int),
	}

	for _, s := range c.series {
		if len(s) == 0 {
			continue
		}
		summary.UniqueNames++
		summary.TotalCount += len(s)
		for _, m := range s {
			summary.CountsByType[m.Type]++
			if summary.OldestTimestamp.IsZero() || m.Timestamp.Before(summary.OldestTimestamp) {
				summary.OldestTimestamp = m.Timestamp
			}
			if m.Timestamp.After(summary.NewestTimestamp) {
				summary.NewestTimestamp = m.Timestamp
			}
		}
	}

	return summary
}

// RemoveExpired discards entries older than the retention window relative
// to now and returns the number removed. Each series is trimmed from the
// front under its own short critical section.
func (c *Collector) RemoveExpired(now time.Time) int {
	cutoff := now.Add(-c.retention)

	c.mu.RLock()
	names := make([]string, 0, len(c.series))
	for name := range c.series {
		names = append(names, name)
	}
	c.mu.RUnlock()

	removed := 0
	for _, name := range names {
		c.mu.Lock()
		s := c.series[name]
		n := 0
		for n < len(s) && s[n].Timestamp.Before(cutoff) {
			n++
		}
		if n > 0 {
			removed += n
			if n == len(s) {
				delete(c.series, name)
			} else {
				c.series[name] = s[n:]
			}
		}
		c.mu.Unlock()
	}

	if removed > 0 {
		c.logger.Debug("expired metrics removed", "count", removed)
	}
	return removed
}

// Export returns all retained metrics as serializable report records,
// ordered by timestamp.
func (c *Collector) Export() []ExportRecord {
	c.mu.RLock()
	var records []ExportRecord
	for _, s := range c.series {
		for _, m := range s {
			records = append(records, ExportRecord{
				MetricName: m.Name,
				Value:      m.Value,
				Timestamp:  m.Timestamp,
				Source:     m.Source,
				Tags:       copyTags(m.Tags),
			})
		}
	}
	c.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}
