package config

// ChainConfig configures sequential chain execution.
//
// The Observer field names a registered observer so the value can come from
// JSON or YAML and be resolved at run time.
type ChainConfig struct {
	// CaptureIntermediateStates keeps the state after each step, including
	// the initial state, in ChainResult.Intermediate.
	CaptureIntermediateStates bool `json:"capture_intermediate_states" yaml:"capture_intermediate_states"`

	// Observer names the observer implementation ("noop", "slog", ...).
	Observer string `json:"observer" yaml:"observer"`
}

// DefaultChainConfig returns the slog observer without intermediate capture.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		CaptureIntermediateStates: false,
		Observer:                  "slog",
	}
}

func (c *ChainConfig) Merge(source *ChainConfig) {
	if source.CaptureIntermediateStates {
		c.CaptureIntermediateStates = true
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// ParallelConfig configures the worker pool used by fleet-wide scans.
//
// Worker pool sizing:
//   - MaxWorkers = 0: min(NumCPU*2, WorkerCap, len(items))
//   - MaxWorkers > 0: exact worker count
//
// Error handling:
//   - FailFast = true: stop on the first error and cancel all workers
//   - FailFast = false: process every item and collect all errors
type ParallelConfig struct {
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	WorkerCap int `json:"worker_cap" yaml:"worker_cap"`

	// FailFastNil is read through FailFast(); nil means true.
	FailFastNil *bool `json:"fail_fast" yaml:"fail_fast"`

	Observer string `json:"observer" yaml:"observer"`
}

func (c *ParallelConfig) FailFast() bool {
	if c.FailFastNil == nil {
		return true
	}
	return *c.FailFastNil
}

// DefaultParallelConfig auto-sizes the pool with a cap of 16 and fails fast.
func DefaultParallelConfig() ParallelConfig {
	failFast := true
	return ParallelConfig{
		MaxWorkers:  0,
		WorkerCap:   16,
		FailFastNil: &failFast,
		Observer:    "slog",
	}
}

func (c *ParallelConfig) Merge(source *ParallelConfig) {
	if source.MaxWorkers > 0 {
		c.MaxWorkers = source.MaxWorkers
	}

	if source.WorkerCap > 0 {
		c.WorkerCap = source.WorkerCap
	}

	if source.FailFastNil != nil {
		c.FailFastNil = source.FailFastNil
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

type ConditionalConfig struct {
	Observer string `json:"observer" yaml:"observer"`
}

func DefaultConditionalConfig() ConditionalConfig {
	return ConditionalConfig{
		Observer: "slog",
	}
}

func (c *ConditionalConfig) Merge(source *ConditionalConfig) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
