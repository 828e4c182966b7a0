package server

import "time"

// Config holds HTTP server parameters.
type Config struct {
	Addr string `json:"addr" yaml:"addr"`

	// RateLimitNil is read through RateLimit(); nil means 20 requests per
	// second across all clients and an explicit zero disables limiting.
	RateLimitNil *float64 `json:"rate_limit" yaml:"rate_limit"`
	Burst        int      `json:"burst" yaml:"burst"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

const defaultRateLimit = 20

// RateLimit returns the sustained requests per second; zero or less means
// unlimited.
func (c *Config) RateLimit() float64 {
	if c.RateLimitNil == nil {
		return defaultRateLimit
	}
	return *c.RateLimitNil
}

func DefaultConfig() Config {
	limit := float64(defaultRateLimit)
	return Config{
		Addr:            ":8080",
		RateLimitNil:    &limit,
		Burst:           40,
		ShutdownTimeout: 10 * time.Second,
	}
}

func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.RateLimitNil != nil {
		c.RateLimitNil = source.RateLimitNil
	}
	if source.Burst > 0 {
		c.Burst = source.Burst
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}
