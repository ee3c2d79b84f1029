// Package alerting evaluates metric conditions and statistical baselines,
// maintaining the alert lifecycle.
package alerting

import (
	"time"
)

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Condition is the comparison applied between a metric value and a rule
// threshold.
type Condition string

const (
	CondGreater      Condition = ">"
	CondLess         Condition = "<"
	CondGreaterEqual Condition = ">="
	CondLessEqual    Condition = "<="
	CondEqual        Condition = "=="
	CondNotEqual     Condition = "!="
)

// Rule defines an alert condition against a metric. Rules are immutable
// after registration.
type Rule struct {
	ID                   string
	Name                 string
	MetricName           string
	Condition            Condition
	Threshold            float64
	Severity             Severity
	NotificationChannels []string
	AnomalyMode          bool
	CreatedAt            time.Time
}

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	StatusActive   AlertStatus = "active"
	StatusResolved AlertStatus = "resolved"
)

// Alert is one firing (or resolved) instance of a rule. At most one alert
// per rule is active at any time.
type Alert struct {
	ID          string
	RuleID      string
	RuleName    string
	MetricName  string
	Value       float64 // value observed when the alert opened
	Severity    Severity
	Status      AlertStatus
	Message     string
	TriggeredAt time.Time
	ResolvedAt  time.Time
}

// Duration returns how long the alert was (or has been) active.
func (a Alert) Duration() time.Duration {
	if a.Status == StatusResolved {
		return a.ResolvedAt.Sub(a.TriggeredAt)
	}
	return time.Since(a.TriggeredAt)
}

// Statistics summarizes alert volume and resolution behavior.
type Statistics struct {
	TotalCount        int
	ActiveCount       int
	ResolvedCount     int
	CountsBySeverity  map[Severity]int
	MeanTimeToResolve time.Duration
}
