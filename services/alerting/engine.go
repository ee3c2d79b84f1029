package alerting

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/instantcocoa/argus/pkg/oberr"
)

// MetricReader is the view of the metrics collector the engine evaluates
// against. The engine never touches collector internals.
type MetricReader interface {
	GetMetricValue(name string) (float64, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetectorFactory substitutes the anomaly detector built for each
// anomaly-mode rule.
func WithDetectorFactory(factory func() Detector) Option {
	return func(e *Engine) {
		e.newDetector = factory
	}
}

// Engine registers alert rules and evaluates them against the latest
// metric values. It enforces at most one active alert per rule regardless
// of how many evaluation ticks observe the triggering condition.
type Engine struct {
	mu          sync.Mutex
	metrics     MetricReader
	rules       map[string]*Rule
	ruleOrder   []string
	active      map[string]*Alert // ruleID -> active alert
	resolved    []Alert
	detectors   map[string]Detector // ruleID -> baseline state
	newDetector func() Detector
	logger      *slog.Logger
}

// NewEngine creates an engine reading metric values through the given
// reader. The default anomaly detector is a 3-sigma z-score over a
// 60-sample window.
func NewEngine(metrics MetricReader, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		metrics:   metrics,
		rules:     make(map[string]*Rule),
		active:    make(map[string]*Alert),
		detectors: make(map[string]Detector),
		newDetector: func() Detector {
			return NewZScoreDetector(60, 3.0)
		},
		logger: logger.With("component", "alerting"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule validates and registers a rule, returning its generated ID.
// Rules are immutable once added.
func (e *Engine) AddRule(r Rule) (string, error) {
	if r.Name == "" {
		return "", oberr.Invalid("name", "must not be empty")
	}
	if r.MetricName == "" {
		return "", oberr.Invalid("metric_name", "must not be empty")
	}
	switch r.Condition {
	case CondGreater, CondLess, CondGreaterEqual, CondLessEqual, CondEqual, CondNotEqual:
	default:
		return "", oberr.Invalid("condition", "unknown operator: "+string(r.Condition))
	}
	switch r.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	case "":
		r.Severity = SeverityWarning
	default:
		return "", oberr.Invalid("severity", "unknown severity: "+string(r.Severity))
	}

	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()

	e.mu.Lock()
	e.rules[r.ID] = &r
	e.ruleOrder = append(e.ruleOrder, r.ID)
	if r.AnomalyMode {
		e.detectors[r.ID] = e.newDetector()
	}
	e.mu.Unlock()

	e.logger.Info("alert rule added",
		"rule_id", r.ID,
		"name", r.Name,
		"metric", r.MetricName,
		"condition", string(r.Condition),
		"threshold", r.Threshold,
		"anomaly_mode", r.AnomalyMode,
	)
	return r.ID, nil
}

// GetRule returns a copy of the rule.
func (e *Engine) GetRule(id string) (Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[id]
	if !ok {
		return Rule{}, oberr.NotFound("rule", id)
	}
	return *r, nil
}

// Evaluate runs one evaluation pass over all rules. A rule whose metric
// has no data yet is dormant and never alerts. The collector is read
// outside the engine lock, one rule at a time, so ingestion is never
// blocked across the whole rule set.
func (e *Engine) Evaluate() {
	e.mu.Lock()
	rules := make([]Rule, 0, len(e.ruleOrder))
	for _, id := range e.ruleOrder {
		rules = append(rules, *e.rules[id])
	}
	e.mu.Unlock()

	for _, r := range rules {
		value, err := e.metrics.GetMetricValue(r.MetricName)
		if err != nil {
			continue // dormant until the metric has data
		}

		triggered := compare(value, r.Condition, r.Threshold)
		reason := "threshold"

		if r.AnomalyMode {
			e.mu.Lock()
			det := e.detectors[r.ID]
			anomalous := false
			if det != nil {
				anomalous = det.Observe(value)
			}
			e.mu.Unlock()
			if anomalous && !triggered {
				reason = "anomaly"
			}
			triggered = triggered || anomalous
		}

		e.transition(r, value, triggered, reason)
	}
}

// transition applies one observation to a rule's alert lifecycle.
func (e *Engine) transition(r Rule, value float64, triggered bool, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.active[r.ID]
	switch {
	case triggered && current == nil:
		alert := &Alert{
			ID:          uuid.NewString(),
			RuleID:      r.ID,
			RuleName:    r.Name,
			MetricName:  r.MetricName,
			Value:       value,
			Severity:    r.Severity,
			Status:      StatusActive,
			Message:     fmt.Sprintf("%s: %s %s %g (observed %g, %s)", r.Name, r.MetricName, r.Condition, r.Threshold, value, reason),
			TriggeredAt: time.Now(),
		}
		e.active[r.ID] = alert
		e.logger.Warn("alert triggered",
			"alert_id", alert.ID,
			"rule", r.Name,
			"metric", r.MetricName,
			"value", value,
			"severity", string(r.Severity),
			"reason", reason,
			"channels", r.NotificationChannels,
		)

	case !triggered && current != nil:
		current.Status = StatusResolved
		current.ResolvedAt = time.Now()
		e.resolved = append(e.resolved, *current)
		delete(e.active, r.ID)
		e.logger.Info("alert resolved",
			"alert_id", current.ID,
			"rule", r.Name,
			"metric", r.MetricName,
			"duration", current.ResolvedAt.Sub(current.TriggeredAt),
		)
	}
}

// GetActiveAlerts returns the current unresolved alerts, oldest first.
func (e *Engine) GetActiveAlerts() []Alert {
	e.mu.Lock()
	alerts := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		alerts = append(alerts, *a)
	}
	e.mu.Unlock()

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].TriggeredAt.Before(alerts[j].TriggeredAt)
	})
	return alerts
}

// GetStatistics returns counts by status/severity and the mean time to
// resolution across resolved alerts.
func (e *Engine) GetStatistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Statistics{
		ActiveCount:      len(e.active),
		ResolvedCount:    len(e.resolved),
		CountsBySeverity: make(map[Severity]int),
	}
	stats.TotalCount = stats.ActiveCount + stats.ResolvedCount

	var totalResolution time.Duration
	for _, a := range e.active {
		stats.CountsBySeverity[a.Severity]++
	}
	for _, a := range e.resolved {
		stats.CountsBySeverity[a.Severity]++
		totalResolution += a.ResolvedAt.Sub(a.TriggeredAt)
	}
	if len(e.resolved) > 0 {
		stats.MeanTimeToResolve = totalResolution / time.Duration(len(e.resolved))
	}
	return stats
}

func compare(value float64, cond Condition, threshold float64) bool {
	switch cond {
	case CondGreater:
		return value > threshold
	case CondLess:
		return value < threshold
	case CondGreaterEqual:
		return value >= threshold
	case CondLessEqual:
		return value <= threshold
	case CondEqual:
		return value == threshold
	case CondNotEqual:
		return value != threshold
	default:
		return false
	}
}
