package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/calderhq/calder/pkg/api"
)

// retryExecutor runs a single step's handler under its bounded-attempt
// backoff policy and classifies the result as success, pause or failure.
type retryExecutor struct {
	observer api.Observer

	// sleep is swapped out in tests; defaults to a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryExecutor(observer api.Observer) *retryExecutor {
	return &retryExecutor{
		observer: observer,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// signalBag adapts an execution's signal map to the api.SignalBag the
// handler sees. Writes go straight into the aggregate; the scheduler
// persists them with the rest of the record.
type signalBag struct {
	exec *api.WorkflowExecution
}

func (b signalBag) Get(name string) (api.Signal, bool) {
	sig, ok := b.exec.Signals[name]
	return sig, ok
}

func (b signalBag) Set(name string, payload any) {
	if b.exec.Signals == nil {
		b.exec.Signals = make(map[string]api.Signal)
	}
	b.exec.Signals[name] = api.Signal{Payload: payload, ReceivedAt: time.Now()}
}

// run executes one step against the execution's StepExecution record.
//
// It mutates se in place (status, attempts, timestamps, logs, output) and
// calls persist after every attempt transition so the record on disk
// tracks progress. The returned error is infrastructural (persist or
// context failure) and aborts the scheduling pass; step-level failures are
// reported through the Outcome instead.
func (x *retryExecutor) run(
	ctx context.Context,
	def api.StepDefinition,
	exec *api.WorkflowExecution,
	se *api.StepExecution,
	input any,
	persist func() error,
) (api.Outcome, error) {
	policy := api.DefaultRetryPolicy()
	if def.Retry != nil {
		policy = def.Retry.Normalize()
	}

	logf := func(msg string, data map[string]any) {
		se.Logs = append(se.Logs, api.LogEntry{Time: time.Now(), Message: msg, Data: data})
	}

	var last api.Outcome

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return api.Outcome{}, err
		}

		if attempt == 1 {
			se.Status = api.StepRunning
		} else {
			se.Status = api.StepRetrying
		}
		se.Attempts = attempt
		now := time.Now()
		se.StartedAt = &now
		logf(fmt.Sprintf("attempt %d/%d", attempt, policy.MaxAttempts), nil)
		if err := persist(); err != nil {
			return api.Outcome{}, err
		}

		sc := api.NewStepContext(exec.ID, def.ID, attempt, input, logf, signalBag{exec: exec})

		start := time.Now()
		x.observer.OnStepStart(ctx, exec, def.ID, attempt)
		outcome := def.Handler(ctx, sc)
		x.observer.OnStepCompleted(ctx, exec, def.ID, attempt, outcome.Err(), time.Since(start))

		if outcome.Success() {
			done := time.Now()
			se.Status = api.StepCompleted
			se.CompletedAt = &done
			se.Error = ""
			se.Output = outcome.Value()
			logf("completed", nil)
			if err := persist(); err != nil {
				return api.Outcome{}, err
			}
			return outcome, nil
		}

		if outcome.Paused() {
			// Pause is not a failure: the step stays RUNNING, no error is
			// recorded and the retry budget is untouched. The scheduler
			// suspends the execution; a later signal re-enters this step.
			logf("paused, awaiting signal", nil)
			if err := persist(); err != nil {
				return api.Outcome{}, err
			}
			return outcome, nil
		}

		last = outcome
		se.Error = outcome.Err().Error()
		logf("attempt failed", map[string]any{"error": se.Error})
		if err := persist(); err != nil {
			return api.Outcome{}, err
		}

		if attempt < policy.MaxAttempts {
			// Linear backoff: base * attempt number.
			if err := x.sleep(ctx, policy.BackoffBase*time.Duration(attempt)); err != nil {
				return api.Outcome{}, err
			}
		}
	}

	done := time.Now()
	se.Status = api.StepFailed
	se.CompletedAt = &done
	logf("failed, retries exhausted", nil)
	if err := persist(); err != nil {
		return api.Outcome{}, err
	}
	return last, nil
}
