// Package calder provides a minimal, embeddable durable-workflow engine
// for Go.
//
// Calder runs a named sequence of idempotent steps against a mutable
// input/output chain, persists execution progress after every transition so
// a workflow survives process restarts, retries failing steps with linear
// backoff, and can pause indefinitely awaiting an external signal before
// resuming from the paused step. It runs fully in-process and needs no
// external infrastructure beyond the chosen storage backend.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Engine
//  2. Step handlers and Outcomes
//  3. WorkflowBuilder
//  4. Signals
//
// # Engine
//
// The Engine holds step and workflow definitions, persists execution state,
// and provides APIs to:
//   - start executions (asynchronously; callers poll for progress)
//   - read execution state, including per-step attempt logs
//   - deliver signals that resume paused executions
//
// Engines can be backed by different storage:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Redis
//
// Definitions themselves are not persisted; applications re-register them
// at process start, and any execution persisted by an earlier process can
// then be resumed by signaling it.
//
// # Step handlers and Outcomes
//
// A step handler is the fundamental executable unit:
//
//	func(ctx context.Context, sc *calder.StepContext) calder.Outcome
//
// The StepContext carries the step's input, an append-only log sink, and
// accessors into the execution's signal bag. The handler reports its result
// as a value: Done(output), Fail(err), or Pause(). Failures are retried per
// the step's RetryPolicy; a pause suspends the whole execution until a
// signal arrives. Handlers should be idempotent, since the engine may
// invoke them again after a retry, a resume, or a restart.
//
// # WorkflowBuilder
//
// WorkflowBuilder is the declarative API used to define workflows:
//
//	calder.NewWorkflow("user-onboarding").
//	    Step("create-user", createUser).
//	    WaitForSignal("await-verification", "verified").
//	    Step("score-lead", scoreLead).
//	    MustRegister(engine)
//
// # Signals
//
// A signal is an external event addressed to one execution by name. It is
// written into the execution's durable signal bag and, if the execution is
// paused, the paused step is re-entered so it can observe the payload.
// Signaling an unknown or already-finished execution is a harmless no-op.
//
// For examples, see the /examples directory or the project README.
package calder
