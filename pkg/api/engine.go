package api

import "context"

// ExecutionListOptions controls how executions are listed.
// Zero values mean "no filter" for that field.
type ExecutionListOptions struct {
	// WorkflowID, if non-empty, limits results to executions of the
	// given workflow.
	WorkflowID string

	// Status, if non-empty, limits results to executions with the
	// given status.
	Status Status
}

// Engine is the high-level durable-workflow engine API.
type Engine interface {
	// RegisterStep registers a step definition by ID. Registering the
	// same ID twice with an identical definition is a no-op; with a
	// different one it fails with ErrDuplicateDefinition.
	RegisterStep(def StepDefinition) error

	// RegisterWorkflow registers a workflow definition by ID. Every step
	// ID it references must already be registered.
	RegisterWorkflow(def WorkflowDefinition) error

	// Start creates and persists a new execution of the named workflow
	// with every step pending, then begins executing it asynchronously.
	// The returned record is a snapshot taken before the first step ran;
	// callers observe progress via GetExecution.
	//
	// Fails with ErrDefinitionNotFound if the workflow is unregistered.
	Start(ctx context.Context, workflowID string, input any) (*WorkflowExecution, error)

	// GetExecution looks up an execution by ID.
	// Fails with ErrExecutionNotFound if absent.
	GetExecution(ctx context.Context, id string) (*WorkflowExecution, error)

	// ListExecutions returns executions matching the given options.
	ListExecutions(ctx context.Context, opts ExecutionListOptions) ([]*WorkflowExecution, error)

	// Signal writes a named signal into an execution's signal bag and,
	// if the execution is suspended, resumes it from the paused step.
	//
	// Signaling an unknown execution or a terminal one is a no-op; the
	// SignalResult distinguishes the cases.
	Signal(ctx context.Context, id, name string, payload any) (SignalResult, error)
}
