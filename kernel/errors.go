package kernel

import "errors"

// ErrInvalidEnv is returned by ApplyEnv for an unreadable env file or a
// malformed numeric variable.
var ErrInvalidEnv = errors.New("invalid environment")
