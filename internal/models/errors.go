package models

import (
	"fmt"
	"strings"
)

// InsufficientDataError signals that a computation had too few readings.
// Engines report it as a skip result, never as a run failure.
type InsufficientDataError struct {
	Operation string
	Needed    int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d readings, have %d", e.Operation, e.Needed, e.Got)
}

// IsTransient returns true: more readings may arrive later
func (e *InsufficientDataError) IsTransient() bool {
	return true
}

// ExternalServiceError signals an upstream service failure, covering both
// the readings source and the narrative generator. The enclosing job
// recovers with a fallback and continues.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsTransient returns true: the service may recover
func (e *ExternalServiceError) IsTransient() bool {
	return true
}

// PersistenceError signals a store write failure for a single record.
// Multi-location loops log it and continue with the next record.
type PersistenceError struct {
	Entity string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Entity, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsTransient returns true: write failures are usually recoverable
func (e *PersistenceError) IsTransient() bool {
	return true
}

// RoutingError signals an unrecognized task name
type RoutingError struct {
	TaskType string
}

func (e *RoutingError) Error() string {
	valid := ValidTaskTypes()
	names := make([]string, len(valid))
	for i, t := range valid {
		names[i] = string(t)
	}
	return fmt.Sprintf("unknown task type %q: valid tasks are %s", e.TaskType, strings.Join(names, ", "))
}

// IsTransient returns false: retrying the same name cannot succeed
func (e *RoutingError) IsTransient() bool {
	return false
}
