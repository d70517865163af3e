// Package api defines the public contract of the calder workflow engine:
// step and workflow definitions, execution records, the handler Outcome
// type, the Engine interface, and the Observer hooks.
//
// Most applications import the root calder package, which re-exports
// everything here together with the engine constructors. Import this
// package directly only when you need the types without the facade (for
// example when implementing an Observer in a separate module).
//
// # Handlers and outcomes
//
// A step handler has the signature
//
//	func(ctx context.Context, sc *api.StepContext) api.Outcome
//
// and reports its result as a value: Done(output) on success, Fail(err) on
// an ordinary failure (retried per the step's RetryPolicy), or Pause() to
// suspend the execution until Engine.Signal delivers an external event.
// Pause is control flow, not an error: it never consumes the retry budget
// and is never surfaced to callers as a failure.
//
// # Executions
//
// WorkflowExecution is the persisted aggregate for one run: overall status,
// the step-by-step attempt history including append-only logs, and the
// execution's signal bag. The engine persists the record after every
// transition, so an execution survives process restarts and a paused one
// can be resumed at any later time.
package api
