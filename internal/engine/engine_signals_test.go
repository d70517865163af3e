package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/calderhq/calder/pkg/api"
)

// waitStep pauses until a signal with the given name is present, then
// completes with the signal payload.
func waitStep(id, signalName string) api.StepDefinition {
	return api.StepDefinition{
		ID: id,
		Handler: func(ctx context.Context, sc *api.StepContext) api.Outcome {
			if sig, ok := sc.Signal(signalName); ok {
				return api.Done(sig.Payload)
			}
			return api.Pause()
		},
		Retry: &api.RetryPolicy{MaxAttempts: 1},
	}
}

func TestEngine_PauseAndResume(t *testing.T) {
	for name, factory := range engineFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			eng := factory(t)

			registerChain(t, eng, "approval",
				passStep("prepare", func(any) any { return "doc-7" }),
				waitStep("await-approval", "approved"),
				passStep("publish", func(input any) any { return input }),
			)

			exec, err := eng.Start(ctx, "approval", nil)
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}

			paused := waitForStatus(t, eng, exec.ID, api.StatusPaused)

			if paused.CurrentStep != "await-approval" {
				t.Fatalf("expected current step await-approval, got %q", paused.CurrentStep)
			}
			// A paused step is in progress, not failed.
			se := paused.Step("await-approval")
			if se.Status != api.StepRunning {
				t.Fatalf("expected waiting step RUNNING, got %s", se.Status)
			}
			if se.Error != "" {
				t.Fatalf("pause must not record a step error, got %q", se.Error)
			}
			if paused.Step("publish").Status != api.StepPending {
				t.Fatal("downstream step must stay PENDING while paused")
			}

			result, err := eng.Signal(ctx, exec.ID, "approved", map[string]any{"by": "ops"})
			if err != nil {
				t.Fatalf("Signal failed: %v", err)
			}
			if result != api.SignalDelivered {
				t.Fatalf("expected SignalDelivered, got %s", result)
			}

			final := waitForStatus(t, eng, exec.ID, api.StatusCompleted)

			out, ok := final.Output().(map[string]any)
			if !ok || out["by"] != "ops" {
				t.Fatalf("expected signal payload to flow to the final step, got %#v", final.Output())
			}
			sig, ok := final.Signals["approved"]
			if !ok {
				t.Fatal("expected delivered signal to be persisted on the execution")
			}
			if sig.ReceivedAt.IsZero() {
				t.Fatal("expected signal receipt time to be recorded")
			}
		})
	}
}

func TestEngine_SignalUnknownExecution(t *testing.T) {
	eng := inMemoryEngine(t)

	result, err := eng.Signal(context.Background(), "no-such-id", "go", nil)
	if err != nil {
		t.Fatalf("signalling an unknown execution must be a no-op, got error %v", err)
	}
	if result != api.SignalNotFound {
		t.Fatalf("expected SignalNotFound, got %s", result)
	}
}

func TestEngine_SignalTerminalExecution(t *testing.T) {
	ctx := context.Background()
	eng := inMemoryEngine(t)

	registerChain(t, eng, "oneshot", passStep("only", func(any) any { return 42 }))

	exec, err := eng.Start(ctx, "oneshot", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	completed := waitForStatus(t, eng, exec.ID, api.StatusCompleted)

	result, err := eng.Signal(ctx, exec.ID, "late", "too late")
	if err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	if result != api.SignalIgnored {
		t.Fatalf("expected SignalIgnored on terminal execution, got %s", result)
	}

	// Terminal executions are immutable: the ignored signal left no trace.
	after, err := eng.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if after.Status != api.StatusCompleted {
		t.Fatalf("terminal status changed to %s", after.Status)
	}
	if len(after.Signals) != len(completed.Signals) {
		t.Fatalf("ignored signal was persisted: %v", after.Signals)
	}
}

func TestEngine_ResumeDoesNotRerunCompletedSteps(t *testing.T) {
	ctx := context.Background()
	eng := inMemoryEngine(t)

	var firstRuns, lastRuns int32
	registerChain(t, eng, "idem",
		api.StepDefinition{
			ID: "first",
			Handler: func(ctx context.Context, sc *api.StepContext) api.Outcome {
				atomic.AddInt32(&firstRuns, 1)
				return api.Done("from-first")
			},
		},
		waitStep("gate", "open"),
		api.StepDefinition{
			ID: "last",
			Handler: func(ctx context.Context, sc *api.StepContext) api.Outcome {
				atomic.AddInt32(&lastRuns, 1)
				return api.Done(sc.Input)
			},
		},
	)

	exec, err := eng.Start(ctx, "idem", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForStatus(t, eng, exec.ID, api.StatusPaused)

	if _, err := eng.Signal(ctx, exec.ID, "open", nil); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	waitForStatus(t, eng, exec.ID, api.StatusCompleted)

	if got := atomic.LoadInt32(&firstRuns); got != 1 {
		t.Fatalf("completed step re-ran on resume: %d invocations", got)
	}
	if got := atomic.LoadInt32(&lastRuns); got != 1 {
		t.Fatalf("expected exactly one invocation of the final step, got %d", got)
	}
}

func TestEngine_ConcurrentSignalsSingleCompletion(t *testing.T) {
	ctx := context.Background()
	eng := inMemoryEngine(t)

	var finalRuns int32
	registerChain(t, eng, "racy",
		waitStep("gate", "open"),
		api.StepDefinition{
			ID: "finish",
			Handler: func(ctx context.Context, sc *api.StepContext) api.Outcome {
				atomic.AddInt32(&finalRuns, 1)
				return api.Done(nil)
			},
		},
	)

	exec, err := eng.Start(ctx, "racy", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForStatus(t, eng, exec.ID, api.StatusPaused)

	// Hammer the execution with racing signals; the per-execution lock
	// must serialize delivery and resumption.
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = eng.Signal(ctx, exec.ID, "open", nil)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	waitForStatus(t, eng, exec.ID, api.StatusCompleted)

	if got := atomic.LoadInt32(&finalRuns); got != 1 {
		t.Fatalf("final step ran %d times, want exactly 1", got)
	}
}
