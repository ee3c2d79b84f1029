package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/instantcocoa/argus/pkg/oberr"
	"github.com/instantcocoa/argus/pkg/testutil"
)

func TestCollector_RecordAndGetValue(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())

	err := c.Record(Metric{Name: "cpu.usage", Value: 42.5, Source: "node1"})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	err = c.Record(Metric{Name: "cpu.usage", Value: 61.0, Source: "node1"})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	value, err := c.GetMetricValue("cpu.usage")
	if err != nil {
		t.Fatalf("GetMetricValue() error = %v", err)
	}
	if value != 61.0 {
		t.Errorf("GetMetricValue() = %v, want 61.0", value)
	}
}

func TestCollector_RecordValidation(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())

	if err := c.Record(Metric{Name: "", Value: 1}); !oberr.IsValidation(err) {
		t.Errorf("Record(empty name) error = %v, want validation error", err)
	}
	if err := c.Record(Metric{Name: "m", Value: math.NaN()}); !oberr.IsValidation(err) {
		t.Errorf("Record(NaN) error = %v, want validation error", err)
	}
	if err := c.Record(Metric{Name: "m", Value: math.Inf(1)}); !oberr.IsValidation(err) {
		t.Errorf("Record(+Inf) error = %v, want validation error", err)
	}
}

func TestCollector_GetMetricValue_NotFound(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())

	_, err := c.GetMetricValue("nonexistent")
	if !oberr.IsNotFound(err) {
		t.Errorf("GetMetricValue() error = %v, want not-found error", err)
	}
}

func TestCollector_GetMetricsBySource(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())
	now := time.Now()

	c.Record(Metric{Name: "cpu.usage", Value: 10, Source: "node1", Timestamp: now.Add(-2 * time.Minute)})
	c.Record(Metric{Name: "mem.usage", Value: 20, Source: "node1", Timestamp: now.Add(-time.Minute)})
	c.Record(Metric{Name: "cpu.usage", Value: 30, Source: "node2", Timestamp: now})

	got := c.GetMetricsBySource("node1")
	if len(got) != 2 {
		t.Fatalf("GetMetricsBySource() count = %d, want 2", len(got))
	}
	if got[0].Name != "cpu.usage" || got[1].Name != "mem.usage" {
		t.Errorf("GetMetricsBySource() order = [%s %s], want chronological [cpu.usage mem.usage]", got[0].Name, got[1].Name)
	}
}

func TestCollector_OutOfOrderTimestamps(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())
	now := time.Now()

	c.Record(Metric{Name: "latency", Value: 2, Source: "svc", Timestamp: now})
	c.Record(Metric{Name: "latency", Value: 1, Source: "svc", Timestamp: now.Add(-time.Minute)})

	// Latest value is still the newest timestamp, not the last write.
	value, err := c.GetMetricValue("latency")
	if err != nil {
		t.Fatalf("GetMetricValue() error = %v", err)
	}
	if value != 2 {
		t.Errorf("GetMetricValue() = %v, want 2", value)
	}
}

func TestCollector_GetSummary(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())

	c.Record(Metric{Name: "requests", Type: TypeCounter, Value: 1, Source: "svc"})
	c.Record(Metric{Name: "requests", Type: TypeCounter, Value: 2, Source: "svc"})
	c.Record(Metric{Name: "cpu.usage", Type: TypeGauge, Value: 50, Source: "svc"})

	summary := c.GetSummary()
	if summary.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", summary.TotalCount)
	}
	if summary.UniqueNames != 2 {
		t.Errorf("UniqueNames = %d, want 2", summary.UniqueNames)
	}
	if summary.CountsByType[TypeCounter] != 2 {
		t.Errorf("CountsByType[counter] = %d, want 2", summary.CountsByType[TypeCounter])
	}
	if summary.CountsByType[TypeGauge] != 1 {
		t.Errorf("CountsByType[gauge] = %d, want 1", summary.CountsByType[TypeGauge])
	}
	if summary.OldestTimestamp.After(summary.NewestTimestamp) {
		t.Error("OldestTimestamp after NewestTimestamp")
	}
}

func TestCollector_RemoveExpired(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())
	now := time.Now()

	c.Record(Metric{Name: "cpu.usage", Value: 95, Source: "node1", Timestamp: now})

	// Nothing expires inside the window.
	if removed := c.RemoveExpired(now.Add(30 * time.Minute)); removed != 0 {
		t.Errorf("RemoveExpired() = %d, want 0", removed)
	}

	// Advancing beyond retention evicts the entry.
	if removed := c.RemoveExpired(now.Add(2 * time.Hour)); removed != 1 {
		t.Errorf("RemoveExpired() = %d, want 1", removed)
	}

	if got := c.GetMetricsBySource("node1"); len(got) != 0 {
		t.Errorf("GetMetricsBySource() after cleanup = %d entries, want 0", len(got))
	}
	if _, err := c.GetMetricValue("cpu.usage"); !oberr.IsNotFound(err) {
		t.Errorf("GetMetricValue() after cleanup error = %v, want not-found error", err)
	}
}

func TestCollector_RemoveExpired_KeepsRecentEntries(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())
	now := time.Now()

	c.Record(Metric{Name: "latency", Value: 1, Source: "svc", Timestamp: now.Add(-50 * time.Minute)})
	c.Record(Metric{Name: "latency", Value: 2, Source: "svc", Timestamp: now})

	if removed := c.RemoveExpired(now.Add(20 * time.Minute)); removed != 1 {
		t.Errorf("RemoveExpired() = %d, want 1", removed)
	}

	got := c.GetMetricsBySource("svc")
	if len(got) != 1 {
		t.Fatalf("GetMetricsBySource() count = %d, want 1", len(got))
	}
	if got[0].Value != 2 {
		t.Errorf("surviving value = %v, want 2", got[0].Value)
	}
}

func TestCollector_TagsDetached(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())

	tags := map[string]string{"region": "eu"}
	c.Record(Metric{Name: "latency", Value: 1, Source: "svc", Tags: tags})
	tags["region"] = "us"

	got := c.GetMetricsBySource("svc")
	if got[0].Tags["region"] != "eu" {
		t.Errorf("stored tag = %q, want %q", got[0].Tags["region"], "eu")
	}

	got[0].Tags["extra"] = "yes"
	records := c.Export()
	if _, ok := records[0].Tags["extra"]; ok {
		t.Error("caller mutation of a returned metric reached the store")
	}
}

func TestCollector_Export(t *testing.T) {
	c := NewCollector(time.Hour, testutil.DiscardLogger())
	now := time.Now()

	c.Record(Metric{Name: "b", Value: 2, Source: "svc", Timestamp: now, Tags: map[string]string{"region": "eu"}})
	c.Record(Metric{Name: "a", Value: 1, Source: "svc", Timestamp: now.Add(-time.Minute)})

	records := c.Export()
	if len(records) != 2 {
		t.Fatalf("Export() count = %d, want 2", len(records))
	}
	if records[0].MetricName != "a" || records[1].MetricName != "b" {
		t.Errorf("Export() order = [%s %s], want chronological [a b]", records[0].MetricName, records[1].MetricName)
	}
	if records[1].Tags["region"] != "eu" {
		t.Errorf("Export() tags not preserved: %v", records[1].Tags)
	}
}
