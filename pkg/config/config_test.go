package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("argus")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServiceName != "argus" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "argus")
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.MetricRetention != 24*time.Hour {
		t.Errorf("MetricRetention = %v, want %v", cfg.MetricRetention, 24*time.Hour)
	}
	if cfg.MaxLogRecords != 10000 {
		t.Errorf("MaxLogRecords = %d, want 10000", cfg.MaxLogRecords)
	}
	if cfg.TickInterval != 30*time.Second {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval, 30*time.Second)
	}
	if cfg.AnomalySigma != 3.0 {
		t.Errorf("AnomalySigma = %v, want 3.0", cfg.AnomalySigma)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ARGUS_ENV", "production")
	t.Setenv("ARGUS_METRIC_RETENTION", "1h")
	t.Setenv("ARGUS_MAX_LOG_RECORDS", "250")
	t.Setenv("ARGUS_TICK_INTERVAL", "5s")
	t.Setenv("ARGUS_ANOMALY_SIGMA", "2.5")
	t.Setenv("ARGUS_LOG_FORMAT", "text")

	cfg, err := Load("argus")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.MetricRetention != time.Hour {
		t.Errorf("MetricRetention = %v, want %v", cfg.MetricRetention, time.Hour)
	}
	if cfg.MaxLogRecords != 250 {
		t.Errorf("MaxLogRecords = %d, want 250", cfg.MaxLogRecords)
	}
	if cfg.TickInterval != 5*time.Second {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval, 5*time.Second)
	}
	if cfg.AnomalySigma != 2.5 {
		t.Errorf("AnomalySigma = %v, want 2.5", cfg.AnomalySigma)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("ARGUS_METRIC_RETENTION", "soon")
	t.Setenv("ARGUS_MAX_LOG_RECORDS", "many")
	t.Setenv("ARGUS_ANOMALY_SIGMA", "wide")

	cfg, err := Load("argus")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MetricRetention != 24*time.Hour {
		t.Errorf("MetricRetention = %v, want default %v", cfg.MetricRetention, 24*time.Hour)
	}
	if cfg.MaxLogRecords != 10000 {
		t.Errorf("MaxLogRecords = %d, want default 10000", cfg.MaxLogRecords)
	}
	if cfg.AnomalySigma != 3.0 {
		t.Errorf("AnomalySigma = %v, want default 3.0", cfg.AnomalySigma)
	}
}
