// Package config holds the configuration structures of the workflow
// primitives: sequential chains (the maintenance pipeline), parallel
// execution (fleet scans), and conditional routing (assistant intents).
//
// Configuration exists only during initialization. Each type provides a
// Default constructor and a Merge method so loaded files layer over defaults:
//
//	cfg := config.DefaultChainConfig()
//	var loaded config.ChainConfig
//	yaml.Unmarshal(data, &loaded)
//	cfg.Merge(&loaded)
//
// Merge semantics by field type:
//
//   - Strings: merge if source is non-empty
//   - Integers: merge if source is greater than zero
//   - Pointers: merge if source is non-nil
//
// Boolean fields whose default is true use a *bool with a "Nil" suffix and an
// accessor carrying the original name (FailFastNil / FailFast()), so a file
// that omits the key keeps the default instead of unmarshaling to false.
package config
