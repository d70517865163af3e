package api

import (
	"errors"
	"fmt"
)

type outcomeKind int

const (
	outcomeFailure outcomeKind = iota // zero value: a step that returns Outcome{} failed
	outcomeSuccess
	outcomePause
)

// Outcome is the tagged result of a step handler invocation.
//
// It replaces error-based control flow for pausing: a handler that wants to
// suspend the workflow returns Pause() rather than raising a distinguished
// error, so the engine never has to classify errors by type or message.
type Outcome struct {
	kind   outcomeKind
	output any
	err    error
}

// Done reports a successful step with the given output.
// The output is passed as input to the next step.
func Done(output any) Outcome {
	return Outcome{kind: outcomeSuccess, output: output}
}

// Pause reports that the step is waiting for an external signal.
// The engine suspends the execution without consuming a retry attempt
// and without recording a failure.
func Pause() Outcome {
	return Outcome{kind: outcomePause}
}

// Fail reports an ordinary step failure. A nil err is normalized to a
// generic error so a failure outcome always carries one.
func Fail(err error) Outcome {
	if err == nil {
		err = errors.New("step failed")
	}
	return Outcome{kind: outcomeFailure, err: err}
}

// Failf is Fail with fmt.Errorf formatting.
func Failf(format string, args ...any) Outcome {
	return Fail(fmt.Errorf(format, args...))
}

// Success reports whether the outcome is a successful completion.
func (o Outcome) Success() bool { return o.kind == outcomeSuccess }

// Paused reports whether the outcome is a pause request.
func (o Outcome) Paused() bool { return o.kind == outcomePause }

// Failed reports whether the outcome is an ordinary failure.
func (o Outcome) Failed() bool { return o.kind == outcomeFailure }

// Value returns the success output, nil for pause/failure outcomes.
func (o Outcome) Value() any { return o.output }

// Err returns the failure error. For a zero-value Outcome (a handler that
// forgot to construct one) it still returns a non-nil error.
func (o Outcome) Err() error {
	if o.kind != outcomeFailure {
		return nil
	}
	if o.err == nil {
		return errors.New("step failed")
	}
	return o.err
}
