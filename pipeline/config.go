package pipeline

import (
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/ueba"
)

// Config holds initialization parameters for the orchestrator.
type Config struct {
	Chain     config.ChainConfig    `json:"chain" yaml:"chain"`
	Scan      config.ParallelConfig `json:"scan" yaml:"scan"`
	Telemetry telemetry.Config      `json:"telemetry" yaml:"telemetry"`

	// Baseline replaces the default agent permission policy when set.
	Baseline ueba.Policy `json:"baseline,omitempty" yaml:"baseline,omitempty"`

	// BaselineFile is a YAML policy file, read once by New. Baseline wins
	// when both are set.
	BaselineFile string `json:"baseline_file,omitempty" yaml:"baseline_file,omitempty"`

	// Observer names the observer that receives run and anomaly events.
	Observer string `json:"observer" yaml:"observer"`
}

// DefaultConfig scans the fleet without failing fast, so one bad vehicle
// does not hide the others.
func DefaultConfig() Config {
	scan := config.DefaultParallelConfig()
	failFast := false
	scan.FailFastNil = &failFast

	return Config{
		Chain:     config.DefaultChainConfig(),
		Scan:      scan,
		Telemetry: telemetry.DefaultConfig(),
		Observer:  "slog",
	}
}

func (c *Config) Merge(source *Config) {
	c.Chain.Merge(&source.Chain)
	c.Scan.Merge(&source.Scan)
	c.Telemetry.Merge(&source.Telemetry)

	if len(source.Baseline) > 0 {
		c.Baseline = source.Baseline
	}
	if source.BaselineFile != "" {
		c.BaselineFile = source.BaselineFile
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

func (c *Config) baseline() (ueba.Baseline, error) {
	switch {
	case len(c.Baseline) > 0:
		return ueba.NewBaseline(c.Baseline), nil
	case c.BaselineFile != "":
		policy, err := ueba.LoadPolicy(c.BaselineFile)
		if err != nil {
			return ueba.Baseline{}, err
		}
		return ueba.NewBaseline(policy), nil
	default:
		return ueba.DefaultBaseline(), nil
	}
}
