package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/instantcocoa/argus/cli/internal/output"
	"github.com/instantcocoa/argus/services/logs"
	"github.com/instantcocoa/argus/services/metrics"
	"github.com/instantcocoa/argus/services/platform"
	"github.com/instantcocoa/argus/services/tracing"
)

var demoQuiet bool

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a simulated workload through an in-process platform",
	Long: `Spins up an in-process observability platform, feeds it a simulated
workload (metrics, a distributed trace, application logs), runs the
maintenance tick, and prints what the platform observed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := demoLogger()
		p := platform.New(platform.Config{}, logger)

		if err := simulateWorkload(p); err != nil {
			return err
		}
		p.Tick()

		return printObservations(p)
	},
}

func init() {
	demoCmd.Flags().BoolVar(&demoQuiet, "quiet", false, "Print summaries only, skip per-record detail")
}

func demoLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// simulateWorkload feeds the platform a plausible few seconds of traffic:
// healthy host metrics, one degraded host that trips the default rules, a
// request trace with a failing database call, and the matching log lines.
func simulateWorkload(p *platform.Platform) error {
	now := time.Now()

	for i := 0; i < 10; i++ {
		ts := now.Add(time.Duration(i-10) * time.Second)
		if err := p.RecordMetric(metrics.Metric{
			Name: "system.cpu.usage", Type: metrics.TypeGauge,
			Value: 35 + float64(i), Timestamp: ts, Source: "host-1",
		}); err != nil {
			return err
		}
	}
	if err := p.RecordMetric(metrics.Metric{
		Name: "system.error.rate", Type: metrics.TypeGauge,
		Value: 12.5, Source: "host-2",
		Tags: map[string]string{"region": "eu-west"},
	}); err != nil {
		return err
	}

	root, err := p.StartTrace("", "checkout", "gateway")
	if err != nil {
		return err
	}
	auth, err := p.CreateSpan(root.TraceID, "authenticate", root.SpanID, "auth", tracing.KindClient)
	if err != nil {
		return err
	}
	db, err := p.CreateSpan(root.TraceID, "reserve_stock", root.SpanID, "inventory", tracing.KindClient)
	if err != nil {
		return err
	}
	if err := p.AddSpanLog(db.SpanID, "retrying after connection refused", "WARNING", nil); err != nil {
		return err
	}
	if err := p.FinishSpan(auth.SpanID, 0, "", nil); err != nil {
		return err
	}
	if err := p.FinishSpan(db.SpanID, 503, "inventory service unavailable", nil); err != nil {
		return err
	}
	if err := p.FinishSpan(root.SpanID, 0, "", map[string]string{"cart_items": "3"}); err != nil {
		return err
	}

	for i := 0; i < 5; i++ {
		if err := p.CollectLog(logs.Record{
			Level:   logs.LevelError,
			Message: "connection refused by inventory:8080",
			Source:  "gateway",
			TraceID: root.TraceID,
		}); err != nil {
			return err
		}
	}
	return p.CollectLog(logs.Record{
		Level:   logs.LevelInfo,
		Message: "checkout completed with degraded inventory",
		Source:  "gateway",
		TraceID: root.TraceID,
	})
}

func printObservations(p *platform.Platform) error {
	w := output.NewWriter(format)

	output.Info("metrics")
	summary := p.GetMetricsSummary()
	if err := w.Print(output.Table{
		Headers: []string{"TOTAL", "UNIQUE NAMES", "OLDEST", "NEWEST"},
		Rows: [][]string{{
			strconv.Itoa(summary.TotalCount),
			strconv.Itoa(summary.UniqueNames),
			summary.OldestTimestamp.Format(time.TimeOnly),
			summary.NewestTimestamp.Format(time.TimeOnly),
		}},
	}); err != nil {
		return err
	}

	output.Info("active alerts")
	alerts := p.GetActiveAlerts()
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{a.RuleName, string(a.Severity), a.MetricName, fmt.Sprintf("%g", a.Value)})
	}
	if err := w.Print(output.Table{
		Headers: []string{"RULE", "SEVERITY", "METRIC", "VALUE"},
		Rows:    rows,
	}); err != nil {
		return err
	}

	output.Info("error patterns")
	patterns := p.GetErrorAnalysis()
	rows = rows[:0]
	for _, pc := range patterns {
		rows = append(rows, []string{pc.Pattern, strconv.Itoa(pc.Count), pc.Example})
	}
	if err := w.Print(output.Table{
		Headers: []string{"PATTERN", "COUNT", "EXAMPLE"},
		Rows:    rows,
	}); err != nil {
		return err
	}

	output.Info("operations, slowest first")
	perf := p.GetPerformanceSummary()
	rows = rows[:0]
	for _, op := range perf.Operations {
		errRate := fmt.Sprintf("%.0f%%", op.ErrorRate()*100)
		rows = append(rows, []string{op.ServiceName, op.OperationName, op.AverageDuration().String(), errRate})
	}
	if err := w.Print(output.Table{
		Headers: []string{"SERVICE", "OPERATION", "AVG DURATION", "ERROR RATE"},
		Rows:    rows,
	}); err != nil {
		return err
	}

	if !demoQuiet {
		output.Info("trace trees")
		for _, traceID := range p.Tracing().TraceIDs() {
			tree, err := p.GetTraceTree(traceID)
			if err != nil {
				return err
			}
			for _, node := range tree {
				printSpanNode(node, 0)
			}
		}
	}

	output.Success("demo complete")
	return nil
}

func printSpanNode(n *tracing.SpanNode, depth int) {
	indent := strings.Repeat("  ", depth)
	status := "ok"
	if n.Span.StatusCode != 0 {
		status = fmt.Sprintf("error %d", n.Span.StatusCode)
	}
	fmt.Printf("%s%s/%s [%s] %s\n", indent, n.Span.ServiceName, n.Span.OperationName, status, n.Span.Duration())
	for _, child := range n.Children {
		printSpanNode(child, depth+1)
	}
}
