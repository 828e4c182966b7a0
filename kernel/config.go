package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/fleetcare/notify"
	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/server"
	"github.com/tailored-agentic-units/fleetcare/session"
	"github.com/tailored-agentic-units/fleetcare/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLEETCARE_"

// Config holds initialization parameters for all subsystems.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	Pipeline pipeline.Config             `json:"pipeline" yaml:"pipeline"`
	Store    store.Config                `json:"store" yaml:"store"`
	Server   server.Config               `json:"server" yaml:"server"`
	Session  session.Config              `json:"session" yaml:"session"`
	Notify   notify.Config               `json:"notify" yaml:"notify"`
	Tracing  observability.TracingConfig `json:"tracing" yaml:"tracing"`
	Routing  config.ConditionalConfig    `json:"routing" yaml:"routing"`
	LogLevel string                      `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Pipeline: pipeline.DefaultConfig(),
		Store:    store.DefaultConfig(),
		Server:   server.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Notify:   notify.DefaultConfig(),
		Tracing:  observability.DefaultTracingConfig(),
		Routing:  config.DefaultConditionalConfig(),
		LogLevel: "info",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Pipeline.Merge(&source.Pipeline)
	c.Store.Merge(&source.Store)
	c.Server.Merge(&source.Server)
	c.Session.Merge(&source.Session)
	c.Notify.Merge(&source.Notify)
	c.Tracing.Merge(&source.Tracing)
	c.Routing.Merge(&source.Routing)

	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON config file and merges it
// over the defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// ApplyEnv loads envFile into the process environment when it exists, then
// overrides c from FLEETCARE_* variables. Variables already set in the
// environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %v", ErrInvalidEnv, envFile, err)
		}
	}

	var overrides Config
	strVars := map[string]*string{
		"ADDR":          &overrides.Server.Addr,
		"DB_PATH":       &overrides.Store.Path,
		"NATS_URL":      &overrides.Notify.URL,
		"NATS_SUBJECT":  &overrides.Notify.Subject,
		"OTLP_ENDPOINT": &overrides.Tracing.Endpoint,
		"BASELINE_FILE": &overrides.Pipeline.BaselineFile,
		"OBSERVER":      &overrides.Pipeline.Observer,
		"LOG_LEVEL":     &overrides.LogLevel,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSEED=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		overrides.Pipeline.Telemetry.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvPrefix + "RATE_LIMIT"); ok {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sRATE_LIMIT=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		overrides.Server.RateLimitNil = &limit
	}

	c.Merge(&overrides)
	return nil
}
