package config_test

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
)

func TestChainConfig_Merge(t *testing.T) {
	cfg := config.DefaultChainConfig()
	cfg.Merge(&config.ChainConfig{CaptureIntermediateStates: true, Observer: "noop"})

	if !cfg.CaptureIntermediateStates {
		t.Error("CaptureIntermediateStates = false, want true after merge")
	}
	if cfg.Observer != "noop" {
		t.Errorf("Observer = %q, want %q", cfg.Observer, "noop")
	}
}

func TestChainConfig_MergeKeepsDefaults(t *testing.T) {
	cfg := config.DefaultChainConfig()
	cfg.Merge(&config.ChainConfig{})

	if cfg.Observer != "slog" {
		t.Errorf("Observer = %q, want %q", cfg.Observer, "slog")
	}
}

func TestParallelConfig_FailFastDefault(t *testing.T) {
	var cfg config.ParallelConfig
	if !cfg.FailFast() {
		t.Error("FailFast() = false for nil pointer, want true")
	}
}

func TestParallelConfig_YAMLOmittedFailFast(t *testing.T) {
	cfg := config.DefaultParallelConfig()

	var loaded config.ParallelConfig
	if err := yaml.Unmarshal([]byte("max_workers: 4\n"), &loaded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	cfg.Merge(&loaded)

	if cfg.MaxWorkers != 4 {
		t.Errorf("MaxWorkers = %d, want 4", cfg.MaxWorkers)
	}
	if !cfg.FailFast() {
		t.Error("FailFast() = false, want default true when key omitted")
	}
}

func TestParallelConfig_YAMLExplicitFalse(t *testing.T) {
	cfg := config.DefaultParallelConfig()

	var loaded config.ParallelConfig
	if err := yaml.Unmarshal([]byte("fail_fast: false\nworker_cap: 4\n"), &loaded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	cfg.Merge(&loaded)

	if cfg.FailFast() {
		t.Error("FailFast() = true, want false")
	}
	if cfg.WorkerCap != 4 {
		t.Errorf("WorkerCap = %d, want 4", cfg.WorkerCap)
	}
}

func TestConditionalConfig_Merge(t *testing.T) {
	cfg := config.DefaultConditionalConfig()
	cfg.Merge(&config.ConditionalConfig{Observer: "capture"})
	if cfg.Observer != "capture" {
		t.Errorf("Observer = %q, want %q", cfg.Observer, "capture")
	}
}
