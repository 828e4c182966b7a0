package session

import "time"

// Config bounds the dashboards a Manager keeps.
type Config struct {
	// MaxSessions caps live dashboards; the least recently used one is
	// evicted to make room.
	MaxSessions int `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`

	// IdleTTL drops dashboards not used for this long.
	IdleTTL time.Duration `json:"idle_ttl,omitempty" yaml:"idle_ttl,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		MaxSessions: 1000,
		IdleTTL:     30 * time.Minute,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxSessions > 0 {
		c.MaxSessions = source.MaxSessions
	}
	if source.IdleTTL > 0 {
		c.IdleTTL = source.IdleTTL
	}
}
