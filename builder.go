package calder

import (
	"fmt"

	"github.com/calderhq/calder/pkg/api"
)

// WorkflowBuilder provides a fluent API for defining a workflow together
// with the steps it runs:
//
//	flow := calder.NewWorkflow("user-onboarding").
//	    Step("create-user", createUser).
//	    WaitForSignal("await-verification", "verified").
//	    StepWithRetry("score-lead", scoreLead, calder.Retry(5).WithBackoff(2*time.Second).Policy())
//
//	if err := flow.Register(engine); err != nil {
//	    log.Fatal(err)
//	}
//
//	exec, err := calder.Start(ctx, engine, flow.ID(), input)
//
// Register registers the collected step definitions first and then the
// workflow itself, so a workflow built this way is always internally
// consistent. Steps registered elsewhere can be referenced with StepID.
type WorkflowBuilder struct {
	def   api.WorkflowDefinition
	steps []api.StepDefinition
}

// NewWorkflow creates a new workflow builder with the given ID.
func NewWorkflow(id string) *WorkflowBuilder {
	return &WorkflowBuilder{
		def: api.WorkflowDefinition{
			ID:    id,
			Steps: make([]string, 0),
		},
	}
}

// ID returns the workflow ID.
func (b *WorkflowBuilder) ID() string {
	return b.def.ID
}

// Definition returns the underlying WorkflowDefinition.
// Typically used when interacting with lower-level APIs.
func (b *WorkflowBuilder) Definition() WorkflowDefinition {
	return b.def
}

// Step appends a step with the default retry policy.
func (b *WorkflowBuilder) Step(id string, handler Handler) *WorkflowBuilder {
	return b.add(api.StepDefinition{ID: id, Handler: handler})
}

// StepWithRetry appends a step that uses the given retry policy.
func (b *WorkflowBuilder) StepWithRetry(id string, handler Handler, retry RetryPolicy) *WorkflowBuilder {
	// Copy so callers can mutate their RetryPolicy after the call
	// without affecting the stored definition.
	r := retry
	return b.add(api.StepDefinition{ID: id, Handler: handler, Retry: &r})
}

// NamedStep appends a step with an explicit display name.
func (b *WorkflowBuilder) NamedStep(id, name string, handler Handler) *WorkflowBuilder {
	return b.add(api.StepDefinition{ID: id, Name: name, Handler: handler})
}

// WaitForSignal appends a durable-wait step that suspends the workflow
// until the named signal arrives. Wait steps get MaxAttempts 1: retrying
// serves no purpose until a signal is delivered.
func (b *WorkflowBuilder) WaitForSignal(stepID, signalName string) *WorkflowBuilder {
	return b.add(api.StepDefinition{
		ID:      stepID,
		Handler: WaitForSignalStep(signalName),
		Retry:   &api.RetryPolicy{MaxAttempts: 1},
	})
}

// StepID appends a reference to a step registered outside this builder.
func (b *WorkflowBuilder) StepID(id string) *WorkflowBuilder {
	if id == "" {
		panic("calder: step id must not be empty")
	}
	b.def.Steps = append(b.def.Steps, id)
	return b
}

func (b *WorkflowBuilder) add(def api.StepDefinition) *WorkflowBuilder {
	if def.ID == "" {
		panic("calder: step id must not be empty")
	}
	if def.Handler == nil {
		panic(fmt.Sprintf("calder: step %q has nil handler", def.ID))
	}
	b.steps = append(b.steps, def)
	b.def.Steps = append(b.def.Steps, def.ID)
	return b
}

// Register registers the built steps and the workflow with the given engine.
func (b *WorkflowBuilder) Register(eng Engine) error {
	for _, step := range b.steps {
		if err := eng.RegisterStep(step); err != nil {
			return err
		}
	}
	return eng.RegisterWorkflow(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *WorkflowBuilder) MustRegister(eng Engine) {
	if err := b.Register(eng); err != nil {
		panic(err)
	}
}
