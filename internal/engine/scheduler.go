package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calderhq/calder/internal/persistence"
	"github.com/calderhq/calder/pkg/api"
)

// scheduler drives executions through their steps: it walks the workflow
// definition against the persisted record, invokes the retry executor per
// step, and updates execution status after every transition.
//
// A per-execution mutex gives each execution a single-writer discipline:
// run and deliverSignal for one execution never interleave, even when
// multiple signals race each other or a signal races the initial start.
type scheduler struct {
	steps     *stepRegistry
	workflows *workflowRegistry
	store     persistence.ExecutionStore
	executor  *retryExecutor
	observer  api.Observer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newScheduler(steps *stepRegistry, workflows *workflowRegistry, store persistence.ExecutionStore, observer api.Observer) *scheduler {
	return &scheduler{
		steps:     steps,
		workflows: workflows,
		store:     store,
		executor:  newRetryExecutor(observer),
		observer:  observer,
	}
}

// lockFor returns the mutex for one execution, creating it on first use.
// Entries are never reaped; they are bounded by the executions this
// process has touched.
func (s *scheduler) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// start creates and persists a fresh execution, then begins executing it
// asynchronously. The caller gets the pre-execution snapshot immediately.
func (s *scheduler) start(ctx context.Context, workflowID string, input any) (*api.WorkflowExecution, error) {
	def, err := s.workflows.Resolve(workflowID)
	if err != nil {
		return nil, err
	}
	// Fail fast on dangling step references instead of at execution time.
	for _, stepID := range def.Steps {
		if _, err := s.steps.Resolve(stepID); err != nil {
			return nil, err
		}
	}

	exec := &api.WorkflowExecution{
		ID:         uuid.NewString(),
		WorkflowID: def.ID,
		Status:     api.StatusRunning,
		Input:      input,
		StartedAt:  time.Now(),
		Steps:      make([]api.StepExecution, len(def.Steps)),
	}
	for i, stepID := range def.Steps {
		exec.Steps[i] = api.StepExecution{StepID: stepID, Status: api.StepPending}
	}

	if err := s.store.SaveExecution(exec); err != nil {
		return nil, fmt.Errorf("persist new execution: %w", err)
	}

	s.observer.OnExecutionStart(ctx, exec)

	snapshot := exec.Clone()

	// Execution proceeds on a detached context: cancelling the caller's
	// request context must not abort a durable workflow mid-step.
	go s.run(context.WithoutCancel(ctx), exec.ID)

	return snapshot, nil
}

// run advances one execution as far as it can go: to completion, to a
// pause, or to a terminal failure. It is a no-op for terminal executions,
// which makes re-entry after resume or restart idempotent.
func (s *scheduler) run(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	exec, err := s.store.GetExecution(id)
	if err != nil {
		return err
	}
	if exec.Status.Terminal() {
		return nil
	}

	// The definition must be re-registered after a restart before paused
	// executions are resumed. Failing to resolve it is not a workflow
	// failure: the execution is left untouched and can be resumed once
	// definitions are back.
	if _, err := s.workflows.Resolve(exec.WorkflowID); err != nil {
		return err
	}

	persist := func() error { return s.store.SaveExecution(exec) }

	input := exec.Input
	for i := range exec.Steps {
		se := &exec.Steps[i]

		// Idempotent re-entry: completed steps are skipped, carrying their
		// stored output forward as the next step's input.
		if se.Status == api.StepCompleted {
			input = se.Output
			continue
		}

		stepDef, err := s.steps.Resolve(se.StepID)
		if err != nil {
			// Same recovery story as a missing workflow definition.
			return err
		}

		exec.Status = api.StatusRunning
		exec.CurrentStep = se.StepID
		if err := persist(); err != nil {
			return fmt.Errorf("persist step transition: %w", err)
		}

		outcome, runErr := s.executor.run(ctx, stepDef, exec, se, input, persist)
		if runErr != nil {
			// Infrastructure failure (store write, context cancelled).
			// The last persisted state remains the source of truth.
			return runErr
		}

		switch {
		case outcome.Success():
			input = se.Output

		case outcome.Paused():
			exec.Status = api.StatusPaused
			if err := persist(); err != nil {
				return fmt.Errorf("persist pause: %w", err)
			}
			s.observer.OnExecutionPaused(ctx, exec, se.StepID)
			return nil

		default:
			return s.failExecution(ctx, exec, outcome.Err())
		}
	}

	now := time.Now()
	exec.Status = api.StatusCompleted
	exec.CompletedAt = &now
	exec.CurrentStep = ""
	if err := persist(); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}
	s.observer.OnExecutionCompleted(ctx, exec)
	return nil
}

func (s *scheduler) failExecution(ctx context.Context, exec *api.WorkflowExecution, cause error) error {
	now := time.Now()
	exec.Status = api.StatusFailed
	exec.CompletedAt = &now
	if err := s.store.SaveExecution(exec); err != nil {
		return fmt.Errorf("persist failure: %w", err)
	}
	s.observer.OnExecutionFailed(ctx, exec, cause)
	return nil
}

// deliverSignal writes a signal into the execution's bag and, when the
// execution is suspended, resets the in-progress step to pending and
// re-enters execution asynchronously.
func (s *scheduler) deliverSignal(ctx context.Context, id, name string, payload any) (api.SignalResult, error) {
	lock := s.lockFor(id)
	lock.Lock()

	exec, err := s.store.GetExecution(id)
	if err != nil {
		lock.Unlock()
		if errors.Is(err, api.ErrExecutionNotFound) {
			return api.SignalNotFound, nil
		}
		return api.SignalNotFound, err
	}
	if exec.Status.Terminal() {
		lock.Unlock()
		return api.SignalIgnored, nil
	}

	if exec.Signals == nil {
		exec.Signals = make(map[string]api.Signal)
	}
	exec.Signals[name] = api.Signal{Payload: payload, ReceivedAt: time.Now()}

	// Re-arm the step that was in flight so it re-enters the retry
	// executor and can observe the now-present signal.
	if se := exec.Step(exec.CurrentStep); se != nil && se.Status != api.StepCompleted {
		se.Status = api.StepPending
		se.Attempts = 0
	}
	exec.Status = api.StatusRunning

	if err := s.store.SaveExecution(exec); err != nil {
		lock.Unlock()
		return api.SignalDelivered, fmt.Errorf("persist signal: %w", err)
	}
	lock.Unlock()

	go s.run(context.WithoutCancel(ctx), id)

	return api.SignalDelivered, nil
}
