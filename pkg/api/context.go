package api

// SignalBag exposes an execution's signal state to a step handler.
// The bag is owned by the execution and persisted with it.
type SignalBag interface {
	// Get returns the signal stored under name, if any.
	Get(name string) (Signal, bool)

	// Set stores payload under name, overwriting any earlier signal
	// with the same name.
	Set(name string, payload any)
}

// StepContext is the handler-facing view of one step attempt.
// It carries the input and provides a log sink plus accessors into the
// execution's signal bag.
type StepContext struct {
	// ExecutionID identifies the owning workflow execution.
	ExecutionID string

	// StepID identifies the step being executed.
	StepID string

	// Attempt is the 1-based attempt number within the current
	// executor invocation.
	Attempt int

	// Input is the output of the previous step, or the execution's
	// initial input for the first step.
	Input any

	logf    func(msg string, data map[string]any)
	signals SignalBag
}

// NewStepContext wires a StepContext for one handler invocation.
// A nil logf or signals is tolerated: logging becomes a no-op and the
// signal bag reads as empty. That keeps handlers trivially unit-testable.
func NewStepContext(executionID, stepID string, attempt int, input any, logf func(msg string, data map[string]any), signals SignalBag) *StepContext {
	return &StepContext{
		ExecutionID: executionID,
		StepID:      stepID,
		Attempt:     attempt,
		Input:       input,
		logf:        logf,
		signals:     signals,
	}
}

// Log appends a message to the step's attempt log. data may be nil.
func (c *StepContext) Log(msg string, data map[string]any) {
	if c.logf != nil {
		c.logf(msg, data)
	}
}

// Signal returns the signal stored under name, if one has been delivered.
func (c *StepContext) Signal(name string) (Signal, bool) {
	if c.signals == nil {
		return Signal{}, false
	}
	return c.signals.Get(name)
}

// SetSignal stores a signal payload under name for later steps (or later
// attempts of this step) to observe.
func (c *StepContext) SetSignal(name string, payload any) {
	if c.signals != nil {
		c.signals.Set(name, payload)
	}
}
