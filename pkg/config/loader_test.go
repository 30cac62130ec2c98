package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

func TestLoadFile_DefaultsAndOverrides(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
session:
  ttl: 30m
report:
  week_policy: shifted:2
  group_by: dso,pic
headers:
  registry:
    kode toko: outlet_id
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_LIMITS_MAX_ROWS", "1000")

	// Act
	cfg, err := LoadFile(path)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", cfg.Session.TTL)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("expected default store memory, got %q", cfg.Session.Store)
	}
	if cfg.Report.WeekPolicy != "shifted:2" || cfg.Report.GroupBy != "dso,pic" {
		t.Errorf("unexpected report config %+v", cfg.Report)
	}
	if cfg.Limits.MaxRows != 1000 {
		t.Errorf("expected env override 1000, got %d", cfg.Limits.MaxRows)
	}
	if cfg.Headers.Registry["kode toko"] != "outlet_id" {
		t.Errorf("expected header alias, got %v", cfg.Headers.Registry)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
}

func TestLoadFile_DottedHeaderAlias(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
headers:
  scan_log:
    "Tgl. Scan": event_timestamp
    "no. telp": consumer_id
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_HTTP_PORT", "9090")

	// Act
	cfg, err := LoadFile(path)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Headers.ScanLog["tgl. scan"] != "event_timestamp" || cfg.Headers.ScanLog["no. telp"] != "consumer_id" {
		t.Errorf("expected dotted aliases to survive, got %v", cfg.Headers.ScanLog)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected env override 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Report.WeekPolicy != "monday" {
		t.Errorf("expected default week policy, got %q", cfg.Report.WeekPolicy)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Session:       SessionConfig{Store: "memory"},
			Events:        EventsConfig{Driver: "none"},
			OpenTelemetry: OpenTelemetryConfig{Exporter: "stdout"},
			Report:        ReportConfig{WeekPolicy: "monday", GroupBy: "dso"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"bad week policy", func(c *Config) { c.Report.WeekPolicy = "sunday" }, false},
		{"bad dimension", func(c *Config) { c.Report.GroupBy = "region" }, false},
		{"empty group by", func(c *Config) { c.Report.GroupBy = "" }, false},
		{"bad store", func(c *Config) { c.Session.Store = "disk" }, false},
		{"bad driver", func(c *Config) { c.Events.Driver = "kafka" }, false},
		{"bad exporter", func(c *Config) { c.OpenTelemetry.Exporter = "jaeger" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}
