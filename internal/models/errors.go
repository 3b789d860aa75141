package models

import "errors"

// Error taxonomy shared by every pipeline stage.
var (
	// ErrSchema marks a raw record that cannot be mapped to an EnergyRecord.
	ErrSchema = errors.New("schema error")
	// ErrRange marks a record whose year lies outside the covered range.
	ErrRange = errors.New("year out of range")
	// ErrConnectivity marks a failure talking to the source API or the sink.
	ErrConnectivity = errors.New("connectivity error")
	// ErrValidationFailed marks a collection whose validation report fails the run policy.
	ErrValidationFailed = errors.New("validation failed")
)
