package store

// Config holds vehicle database parameters.
type Config struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"` // JSON database file.
}

// DefaultConfig places the database in the working directory.
func DefaultConfig() Config {
	return Config{Path: "vehicle_database.json"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
}
