package calder

import (
	"context"

	"github.com/calderhq/calder/pkg/api"
)

// WaitForSignalStep returns a handler that parks the workflow until a
// signal with the given name is delivered via Engine.Signal.
//
// Semantics:
//   - On each invocation the handler first checks the execution's signal
//     bag. If the signal is present, the step completes with the signal's
//     payload as its output and the workflow continues.
//   - If the signal is absent, the handler returns Pause. The engine marks
//     the execution PAUSED and stops advancing it; a later Signal call
//     re-enters this step, which then observes the stored payload.
//
// This is the only suspension mechanism in the engine: waiting is encoded
// purely as a pause outcome, and neither the scheduler nor the retry
// executor knows "waiting" as a first-class concept. Wait steps should use
// MaxAttempts 1 (WorkflowBuilder.WaitForSignal does this), since retrying
// cannot make a signal appear.
func WaitForSignalStep(name string) Handler {
	return func(ctx context.Context, sc *StepContext) Outcome {
		if sig, ok := sc.Signal(name); ok {
			sc.Log("signal received", map[string]any{"signal": name})
			return Done(sig.Payload)
		}
		return Pause()
	}
}

// PassThroughStep returns a handler that forwards its input unchanged.
// Useful as a placeholder while sketching workflows.
func PassThroughStep() Handler {
	return func(ctx context.Context, sc *StepContext) Outcome {
		return Done(sc.Input)
	}
}

// StepFunc adapts a plain (input) -> (output, error) function into a
// Handler for steps that never pause:
//
//	calder.StepFunc(func(ctx context.Context, input any) (any, error) {
//	    ...
//	})
func StepFunc(fn func(ctx context.Context, input any) (any, error)) Handler {
	return func(ctx context.Context, sc *StepContext) Outcome {
		out, err := fn(ctx, sc.Input)
		if err != nil {
			return api.Fail(err)
		}
		return api.Done(out)
	}
}
