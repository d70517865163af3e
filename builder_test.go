package calder

import (
	"context"
	"errors"
	"testing"
	"time"
)

func echoHandler(ctx context.Context, sc *StepContext) Outcome {
	return Done(sc.Input)
}

func TestWorkflowBuilderDefinition(t *testing.T) {
	b := NewWorkflow("signup").
		Step("create", echoHandler).
		NamedStep("notify", "Send welcome mail", echoHandler).
		WaitForSignal("await-confirm", "confirmed").
		StepID("external-step")

	def := b.Definition()
	if def.ID != "signup" {
		t.Fatalf("unexpected workflow id %q", def.ID)
	}
	want := []string{"create", "notify", "await-confirm", "external-step"}
	if len(def.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %v", len(want), def.Steps)
	}
	for i, id := range want {
		if def.Steps[i] != id {
			t.Fatalf("step %d: expected %q, got %q", i, id, def.Steps[i])
		}
	}
}

func TestWorkflowBuilderPanics(t *testing.T) {
	assertPanics := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatalf("%s did not panic", name)
			}
		}()
		fn()
	}

	assertPanics("empty step id", func() {
		NewWorkflow("wf").Step("", echoHandler)
	})
	assertPanics("nil handler", func() {
		NewWorkflow("wf").Step("a", nil)
	})
	assertPanics("empty step reference", func() {
		NewWorkflow("wf").StepID("")
	})
}

func TestWorkflowBuilderRegisterAndRun(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	NewWorkflow("greet").
		Step("build", func(ctx context.Context, sc *StepContext) Outcome {
			in, _ := sc.Input.(string)
			return Done("hello " + in)
		}).
		Step("suffix", func(ctx context.Context, sc *StepContext) Outcome {
			return Done(sc.Input.(string) + "!")
		}).
		MustRegister(eng)

	exec, err := Start(ctx, eng, "greet", "world")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	final := awaitStatus(t, eng, exec.ID, StatusCompleted)
	if final.Output() != "hello world!" {
		t.Fatalf("unexpected output %v", final.Output())
	}
}

func TestWorkflowBuilderRegisterDanglingReference(t *testing.T) {
	eng := NewInMemoryEngine()

	err := NewWorkflow("wf").
		Step("a", echoHandler).
		StepID("registered-elsewhere").
		Register(eng)
	if !errors.Is(err, ErrDefinitionNotFound) {
		t.Fatalf("expected definition-not-found, got %v", err)
	}
}

func TestRetryBuilder(t *testing.T) {
	p := Retry(4).WithBackoff(2 * time.Second).Policy()
	if p.MaxAttempts != 4 || p.BackoffBase != 2*time.Second {
		t.Fatalf("unexpected policy %+v", p)
	}

	if p := Retry(0).Policy(); p.MaxAttempts != 1 {
		t.Fatalf("non-positive attempts should clamp to 1, got %d", p.MaxAttempts)
	}

	if p := Retry(3).WithBackoff(time.Minute).Immediate().Policy(); p.BackoffBase != 0 {
		t.Fatalf("Immediate should zero the backoff, got %s", p.BackoffBase)
	}
}

// awaitStatus polls until the execution reaches the wanted status.
func awaitStatus(t *testing.T, eng Engine, id string, want Status) *WorkflowExecution {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		exec, err := eng.GetExecution(context.Background(), id)
		if err != nil {
			t.Fatalf("GetExecution failed: %v", err)
		}
		if exec.Status == want {
			return exec
		}
		if time.Now().After(deadline) {
			t.Fatalf("execution %s never reached %s (last: %s)", id, want, exec.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
