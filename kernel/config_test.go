package kernel_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/fleetcare/kernel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := kernel.DefaultConfig()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("got Server.Addr %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Store.Path != "vehicle_database.json" {
		t.Errorf("got Store.Path %q", cfg.Store.Path)
	}
	if cfg.Notify.URL != "" {
		t.Errorf("notify enabled by default: %q", cfg.Notify.URL)
	}
	if cfg.Pipeline.Scan.FailFast() {
		t.Error("fleet scan fails fast by default")
	}
}

func TestConfig_Merge_ZeroValuesPreserveDefaults(t *testing.T) {
	cfg := kernel.DefaultConfig()
	original := cfg

	cfg.Merge(&kernel.Config{})

	if cfg.Server != original.Server || cfg.Store != original.Store || cfg.LogLevel != original.LogLevel {
		t.Errorf("zero merge changed config: %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
				"log_level": "debug",
				"store": {"path": "/tmp/vehicles.json"},
				"server": {"addr": ":9000"},
				"pipeline": {"telemetry": {"seed": 7}}
			}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: "log_level: debug\n" +
				"store:\n  path: /tmp/vehicles.json\n" +
				"server:\n  addr: \":9000\"\n" +
				"pipeline:\n  telemetry:\n    seed: 7\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := kernel.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.LogLevel != "debug" || cfg.Store.Path != "/tmp/vehicles.json" || cfg.Server.Addr != ":9000" {
				t.Errorf("loaded config = %+v", cfg)
			}
			if cfg.Pipeline.Telemetry.Seed != 7 || cfg.Pipeline.Telemetry.CorpusSize != 200 {
				t.Errorf("telemetry = %+v", cfg.Pipeline.Telemetry)
			}
			if cfg.Server.RateLimit() != 20 {
				t.Errorf("default rate limit lost: %v", cfg.Server.RateLimit())
			}
		})
	}
}

func TestLoadConfig_YAMLDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("server:\n  shutdown_timeout: 3s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := kernel.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := kernel.LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file: expected error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := kernel.LoadConfig(path); err == nil {
		t.Error("invalid json: expected error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FLEETCARE_ADDR", ":7070")
	t.Setenv("FLEETCARE_SEED", "99")
	t.Setenv("FLEETCARE_NATS_URL", "nats://broker:4222")

	cfg := kernel.DefaultConfig()
	if err := cfg.ApplyEnv(""); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.Addr != ":7070" || cfg.Pipeline.Telemetry.Seed != 99 || cfg.Notify.URL != "nats://broker:4222" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Notify.Subject != "fleetcare.ueba.anomaly" {
		t.Errorf("subject default lost: %q", cfg.Notify.Subject)
	}
}

func TestApplyEnv_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FLEETCARE_DB_PATH=/data/vehicles.json\nFLEETCARE_LOG_LEVEL=warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLEETCARE_DB_PATH", "")
	os.Unsetenv("FLEETCARE_DB_PATH")
	t.Setenv("FLEETCARE_LOG_LEVEL", "error")

	cfg := kernel.DefaultConfig()
	if err := cfg.ApplyEnv(path); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Store.Path != "/data/vehicles.json" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want the process value to win", cfg.LogLevel)
	}
}

func TestApplyEnv_MissingFileIgnored(t *testing.T) {
	cfg := kernel.DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("ApplyEnv() error = %v", err)
	}
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	t.Setenv("FLEETCARE_SEED", "forty-two")

	cfg := kernel.DefaultConfig()
	if err := cfg.ApplyEnv(""); !errors.Is(err, kernel.ErrInvalidEnv) {
		t.Errorf("error = %v, want ErrInvalidEnv", err)
	}
}

func TestLoadConfig_SessionLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("session:\n  max_sessions: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := kernel.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.MaxSessions != 5 || cfg.Session.IdleTTL != 30*time.Minute {
		t.Errorf("Session = %+v", cfg.Session)
	}
}

func TestLoadConfig_RateLimitZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  rate_limit: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := kernel.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.RateLimit() != 0 {
		t.Errorf("RateLimit() = %v, want 0", cfg.Server.RateLimit())
	}
}
