package platform

import "github.com/instantcocoa/argus/services/alerting"

// installDefaultRules registers the baseline health rules every deployment
// gets. Rules for metrics that are never recorded stay dormant, so
// installing them unconditionally is harmless.
func (p *Platform) installDefaultRules() {
	defaults := []alerting.Rule{
		{
			Name:                 "high-error-rate",
			MetricName:           "system.error.rate",
			Condition:            alerting.CondGreater,
			Threshold:            5,
			Severity:             alerting.SeverityCritical,
			NotificationChannels: []string{"pagerduty"},
		},
		{
			Name:                 "cpu-saturation",
			MetricName:           "system.cpu.usage",
			Condition:            alerting.CondGreater,
			Threshold:            90,
			Severity:             alerting.SeverityWarning,
			NotificationChannels: []string{"slack"},
		},
		{
			Name:                 "memory-saturation",
			MetricName:           "system.memory.usage",
			Condition:            alerting.CondGreater,
			Threshold:            90,
			Severity:             alerting.SeverityWarning,
			NotificationChannels: []string{"slack"},
		},
	}

	for _, r := range defaults {
		if _, err := p.alerts.AddRule(r); err != nil {
			p.logger.Error("failed to install default alert rule", "rule", r.Name, "error", err)
		}
	}
}
