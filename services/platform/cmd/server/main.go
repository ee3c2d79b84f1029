package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/instantcocoa/argus/pkg/config"
	"github.com/instantcocoa/argus/pkg/logging"
	"github.com/instantcocoa/argus/services/platform"
)

const serviceName = "platform"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(serviceName)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Level:          cfg.LogLevel,
		Format:         cfg.LogFormat,
	})

	p := platform.New(platform.Config{
		MetricRetention: cfg.MetricRetention,
		MaxLogRecords:   cfg.MaxLogRecords,
		TickInterval:    cfg.TickInterval,
		AnomalyWindow:   cfg.AnomalyWindow,
		AnomalySigma:    cfg.AnomalySigma,
	}, logger)

	if err := p.Start(); err != nil {
		return fmt.Errorf("failed to start platform: %w", err)
	}

	logger.Info("platform started",
		"env", cfg.Environment,
		"tick_interval", cfg.TickInterval,
		"metric_retention", cfg.MetricRetention,
	)

	// Block until shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	p.Stop()
	return nil
}
