// Package platform composes the observability subsystems behind a single
// facade: metric collection, trace assembly, log aggregation, and alert
// evaluation, plus the periodic maintenance tick that drives retention
// cleanup and rule evaluation.
package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/instantcocoa/argus/services/alerting"
	"github.com/instantcocoa/argus/services/logs"
	"github.com/instantcocoa/argus/services/metrics"
	"github.com/instantcocoa/argus/services/tracing"
)

// Config holds platform construction parameters.
type Config struct {
	// MetricRetention bounds how long metrics and traces are kept.
	MetricRetention time.Duration
	// MaxLogRecords bounds the log aggregator; oldest records are evicted
	// FIFO beyond it.
	MaxLogRecords int
	// TickInterval is the period of the maintenance tick started by Start.
	TickInterval time.Duration
	// AnomalyWindow and AnomalySigma parameterize the default z-score
	// detector for anomaly-mode rules.
	AnomalyWindow int
	AnomalySigma  float64
	// SkipDefaultRules leaves the baseline alert rules uninstalled.
	SkipDefaultRules bool
}

func (c *Config) applyDefaults() {
	if c.MetricRetention <= 0 {
		c.MetricRetention = 24 * time.Hour
	}
	if c.MaxLogRecords <= 0 {
		c.MaxLogRecords = 10000
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 30 * time.Second
	}
	if c.AnomalyWindow <= 0 {
		c.AnomalyWindow = 60
	}
	if c.AnomalySigma <= 0 {
		c.AnomalySigma = 3.0
	}
}

// Platform owns one instance of each subsystem and exposes the unified
// ingestion and query surface. Subsystem state is never shared by mutable
// reference; the alerting engine reads metrics only through the
// collector's query API.
type Platform struct {
	metrics *metrics.Collector
	tracing *tracing.System
	logs    *logs.Aggregator
	alerts  *alerting.Engine

	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// New constructs the platform and its subsystems and installs the baseline
// alert rules. The maintenance tick is not running until Start is called.
func New(cfg Config, logger *slog.Logger) *Platform {
	cfg.applyDefaults()

	collector := metrics.NewCollector(cfg.MetricRetention, logger)
	engine := alerting.NewEngine(collector, logger, alerting.WithDetectorFactory(func() alerting.Detector {
		return alerting.NewZScoreDetector(cfg.AnomalyWindow, cfg.AnomalySigma)
	}))

	p := &Platform{
		metrics:   collector,
		tracing:   tracing.NewSystem(logger),
		logs:      logs.NewAggregator(cfg.MaxLogRecords, logger),
		alerts:    engine,
		retention: cfg.MetricRetention,
		interval:  cfg.TickInterval,
		logger:    logger.With("component", "platform"),
	}

	if !cfg.SkipDefaultRules {
		p.installDefaultRules()
	}
	return p
}

// Start launches the periodic maintenance tick. It is a no-op if the tick
// is already running.
func (p *Platform) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler != nil {
		return nil
	}

	scheduler := cron.New()
	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := scheduler.AddFunc(spec, p.Tick); err != nil {
		return fmt.Errorf("failed to schedule maintenance tick: %w", err)
	}
	scheduler.Start()
	p.scheduler = scheduler

	p.logger.Info("maintenance tick started", "interval", p.interval)
	return nil
}

// Stop halts the maintenance tick, waiting for any in-flight tick to
// finish. Safe to call when not started.
func (p *Platform) Stop() {
	p.mu.Lock()
	scheduler := p.scheduler
	p.scheduler = nil
	p.mu.Unlock()

	if scheduler == nil {
		return
	}

	<-scheduler.Stop().Done()
	p.logger.Info("maintenance tick stopped")
}

// Tick runs one maintenance cycle: metric and trace retention cleanup
// followed by alert rule evaluation. Internal failures are logged and
// swallowed; the observability subsystem must not destabilize the system
// it observes.
func (p *Platform) Tick() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("maintenance tick panic recovered", "panic", r)
		}
	}()

	now := time.Now()
	expiredMetrics := p.metrics.RemoveExpired(now)
	expiredTraces := p.tracing.RemoveExpired(now, p.retention)
	p.alerts.Evaluate()

	if expiredMetrics > 0 || expiredTraces > 0 {
		p.logger.Debug("maintenance tick completed",
			"expired_metrics", expiredMetrics,
			"expired_traces", expiredTraces,
		)
	}
}

// Metrics returns the metrics collector.
func (p *Platform) Metrics() *metrics.Collector { return p.metrics }

// Tracing returns the tracing system.
func (p *Platform) Tracing() *tracing.System { return p.tracing }

// Logs returns the log aggregator.
func (p *Platform) Logs() *logs.Aggregator { return p.logs }

// Alerts returns the alerting engine.
func (p *Platform) Alerts() *alerting.Engine { return p.alerts }

// Ingestion pass-throughs.

// RecordMetric stores a measurement.
func (p *Platform) RecordMetric(m metrics.Metric) error {
	return p.metrics.Record(m)
}

// StartTrace creates the root span of a new trace.
func (p *Platform) StartTrace(traceID, operationName, serviceName string) (tracing.Span, error) {
	return p.tracing.StartTrace(traceID, operationName, serviceName)
}

// CreateSpan creates a child span within an existing trace.
func (p *Platform) CreateSpan(traceID, operationName, parentSpanID, serviceName string, kind tracing.SpanKind) (tracing.Span, error) {
	return p.tracing.CreateSpan(traceID, operationName, parentSpanID, serviceName, kind)
}

// FinishSpan finishes a span.
func (p *Platform) FinishSpan(spanID string, statusCode int, errMsg string, tags map[string]string) error {
	return p.tracing.FinishSpan(spanID, statusCode, errMsg, tags)
}

// AddSpanLog appends a log entry to a span.
func (p *Platform) AddSpanLog(spanID, message, level string, fields map[string]string) error {
	return p.tracing.AddSpanLog(spanID, message, level, fields)
}

// CollectLog stores a structured log record.
func (p *Platform) CollectLog(r logs.Record) error {
	return p.logs.Collect(r)
}

// AddAlertRule registers an alert rule and returns its ID.
func (p *Platform) AddAlertRule(r alerting.Rule) (string, error) {
	return p.alerts.AddRule(r)
}

// Query pass-throughs.

// SearchLogs searches collected log records.
func (p *Platform) SearchLogs(q logs.SearchQuery) []logs.Record {
	return p.logs.Search(q)
}

// GetTrace returns all spans of a trace in insertion order.
func (p *Platform) GetTrace(traceID string) ([]tracing.Span, error) {
	return p.tracing.GetTrace(traceID)
}

// GetTraceTree reconstructs the span hierarchy of a trace.
func (p *Platform) GetTraceTree(traceID string) ([]*tracing.SpanNode, error) {
	return p.tracing.GetTraceTree(traceID)
}

// GetActiveAlerts returns the current unresolved alerts.
func (p *Platform) GetActiveAlerts() []alerting.Alert {
	return p.alerts.GetActiveAlerts()
}

// GetAlertStatistics summarizes alert volume and resolution behavior.
func (p *Platform) GetAlertStatistics() alerting.Statistics {
	return p.alerts.GetStatistics()
}

// GetMetricsSummary describes the retained metric population.
func (p *Platform) GetMetricsSummary() metrics.Summary {
	return p.metrics.GetSummary()
}

// GetMetricsBySource returns the chronological metrics for one source.
func (p *Platform) GetMetricsBySource(source string) []metrics.Metric {
	return p.metrics.GetMetricsBySource(source)
}

// ExportMetrics returns all retained metrics as serializable records.
func (p *Platform) ExportMetrics() []metrics.ExportRecord {
	return p.metrics.Export()
}

// GetLogStatistics describes the retained log population.
func (p *Platform) GetLogStatistics() logs.Statistics {
	return p.logs.GetStatistics()
}

// GetErrorAnalysis returns recognized error pattern frequencies.
func (p *Platform) GetErrorAnalysis() []logs.PatternCount {
	return p.logs.GetErrorAnalysis()
}

// GetPerformanceSummary exposes per-operation latency and error aggregates.
func (p *Platform) GetPerformanceSummary() tracing.PerformanceSummary {
	return p.tracing.GetPerformanceSummary()
}
