package api

import "time"

// Status is the lifecycle state of a workflow execution.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepStatus is the lifecycle state of a single step within an execution.
type StepStatus string

const (
	StepPending   StepStatus = "PENDING"
	StepRunning   StepStatus = "RUNNING"
	StepRetrying  StepStatus = "RETRYING"
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
)

// LogEntry is one record in a step's append-only attempt log.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Signal is an external event delivered to a specific execution.
// Later writes under the same name overwrite earlier ones.
type Signal struct {
	Payload    any       `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// StepExecution records the progress of one step within an execution.
//
// Invariants maintained by the engine:
//   - Output is set only when Status == StepCompleted.
//   - Attempts never exceeds the step's RetryPolicy.MaxAttempts.
type StepExecution struct {
	StepID      string     `json:"step_id"`
	Status      StepStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Output      any        `json:"output,omitempty"`
	Logs        []LogEntry `json:"logs,omitempty"`
}

// WorkflowExecution is one run instance of a workflow, with its own
// persisted progress.
//
// Steps always mirrors the owning WorkflowDefinition in length and order,
// and at most one step is RUNNING or RETRYING at any time.
type WorkflowExecution struct {
	ID         string `json:"id"`
	WorkflowID string `json:"workflow_id"`
	Status     Status `json:"status"`

	// CurrentStep is the ID of the step in progress, empty when none.
	CurrentStep string `json:"current_step,omitempty"`

	// Input is the original input provided to Start. It is kept so the
	// first step can be re-entered after a resume or restart.
	Input any `json:"input,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Steps []StepExecution `json:"steps"`

	// Signals is the per-execution signal bag. It is owned by this
	// aggregate and persisted with it, so a signal delivered before a
	// process restart is still visible after recovery.
	Signals map[string]Signal `json:"signals,omitempty"`
}

// Step returns a pointer to the StepExecution with the given step ID,
// or nil if the execution has no such step.
func (e *WorkflowExecution) Step(stepID string) *StepExecution {
	for i := range e.Steps {
		if e.Steps[i].StepID == stepID {
			return &e.Steps[i]
		}
	}
	return nil
}

// Output returns the stored output of the final step, valid once the
// execution is completed.
func (e *WorkflowExecution) Output() any {
	if len(e.Steps) == 0 {
		return nil
	}
	return e.Steps[len(e.Steps)-1].Output
}

// Clone returns a deep copy of the execution. Opaque inputs/outputs and
// signal payloads are shared, not copied; the engine never mutates them
// in place.
func (e *WorkflowExecution) Clone() *WorkflowExecution {
	if e == nil {
		return nil
	}
	out := *e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	out.Steps = make([]StepExecution, len(e.Steps))
	for i, se := range e.Steps {
		cp := se
		if se.StartedAt != nil {
			t := *se.StartedAt
			cp.StartedAt = &t
		}
		if se.CompletedAt != nil {
			t := *se.CompletedAt
			cp.CompletedAt = &t
		}
		if se.Logs != nil {
			cp.Logs = make([]LogEntry, len(se.Logs))
			copy(cp.Logs, se.Logs)
		}
		out.Steps[i] = cp
	}
	if e.Signals != nil {
		out.Signals = make(map[string]Signal, len(e.Signals))
		for k, v := range e.Signals {
			out.Signals[k] = v
		}
	}
	return &out
}
