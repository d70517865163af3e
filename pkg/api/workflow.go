package api

import (
	"context"
	"time"
)

// Handler is the body of a single workflow step.
//
// A handler receives the step's input and its execution context (log sink,
// signal accessors, attempt number) and reports how the step ended by
// returning an Outcome value:
//
//   - Done(output): the step succeeded; output becomes the next step's input.
//   - Pause(): the step is waiting for an external signal; the workflow is
//     suspended and re-enters this step when Engine.Signal is called.
//   - Fail(err): the step failed; the engine retries it per the step's
//     RetryPolicy and eventually fails the execution.
//
// Handlers should be idempotent: the engine may invoke them again after a
// retry, a resume, or a process restart.
type Handler func(ctx context.Context, sc *StepContext) Outcome

// RetryPolicy controls how a step is retried when its handler fails.
// MaxAttempts includes the first attempt:
//
//	MaxAttempts = 1 => no retries (just the initial call)
//	MaxAttempts = 3 => initial call + up to 2 retries
//
// The sleep before attempt k+1 is BackoffBase * k (linear, not exponential).
// A zero BackoffBase means retries happen immediately.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Default retry policy applied when a step declares none.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
)

// DefaultRetryPolicy returns the policy used for steps without an explicit one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
	}
}

// Normalize returns a copy of p with out-of-range fields replaced by sane
// values. MaxAttempts below 1 becomes 1; a negative BackoffBase becomes 0.
func (p RetryPolicy) Normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BackoffBase < 0 {
		p.BackoffBase = 0
	}
	return p
}

// StepDefinition describes a named, registered step.
// Definitions are immutable after registration.
type StepDefinition struct {
	// ID uniquely identifies the step within the registry.
	ID string

	// Name is a human-oriented display name. Defaults to ID when empty.
	Name string

	// Handler is the step body.
	Handler Handler

	// Retry, if nil, defaults to DefaultRetryPolicy.
	Retry *RetryPolicy
}

// WorkflowDefinition describes a workflow as an ordered sequence of step IDs.
// The slice order is the execution order; there is no branching.
// Definitions are immutable after registration.
type WorkflowDefinition struct {
	ID    string
	Steps []string
}
