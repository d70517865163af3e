package persistence

import "github.com/calderhq/calder/pkg/api"

// ExecutionFilter is used to select executions from the store.
// Empty string / zero status mean "no filter" for that field.
type ExecutionFilter struct {
	WorkflowID string
	Status     api.Status
}

// ExecutionStore persists workflow execution records.
//
// SaveExecution is an idempotent upsert keyed by execution ID and must be
// atomic per write: a reader never observes a partially written record.
// The engine is the sole writer for any given execution, serialized by its
// per-execution lock, so stores do not need cross-writer coordination
// beyond that atomicity.
type ExecutionStore interface {
	SaveExecution(exec *api.WorkflowExecution) error

	// GetExecution returns the execution with the given ID, or
	// api.ErrExecutionNotFound.
	GetExecution(id string) (*api.WorkflowExecution, error)

	ListExecutions(filter ExecutionFilter) ([]*api.WorkflowExecution, error)
}
