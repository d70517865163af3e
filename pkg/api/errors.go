package api

import "errors"

var (
	// ErrDuplicateDefinition is returned when a step or workflow ID is
	// re-registered with a different body. Re-registering an identical
	// definition is a no-op, not an error.
	ErrDuplicateDefinition = errors.New("duplicate definition")

	// ErrDefinitionNotFound is returned when a step or workflow ID cannot
	// be resolved. It is fatal to the calling operation and never retried.
	ErrDefinitionNotFound = errors.New("definition not found")

	// ErrExecutionNotFound is returned by GetExecution for unknown IDs.
	ErrExecutionNotFound = errors.New("execution not found")
)

// SignalResult reports what happened to a delivered signal.
type SignalResult string

const (
	// SignalDelivered: the signal was stored and, if the execution was
	// suspended, execution was re-entered.
	SignalDelivered SignalResult = "delivered"

	// SignalNotFound: no execution with that ID exists. This is a no-op,
	// not an error.
	SignalNotFound SignalResult = "not-found"

	// SignalIgnored: the execution is already completed or failed.
	SignalIgnored SignalResult = "ignored"
)
