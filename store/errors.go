package store

import "errors"

// Sentinel errors for vehicle database operations.
var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrLoadFailed      = errors.New("load failed")
	ErrSaveFailed      = errors.New("save failed")
)
