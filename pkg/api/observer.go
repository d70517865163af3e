package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay workflow execution.
type Observer interface {
	// OnExecutionStart is called once when an execution is first started,
	// before the first step attempt.
	OnExecutionStart(ctx context.Context, exec *WorkflowExecution)

	// OnExecutionPaused is called when an execution suspends awaiting a
	// signal.
	OnExecutionPaused(ctx context.Context, exec *WorkflowExecution, stepID string)

	// OnExecutionCompleted is called when an execution reaches
	// StatusCompleted.
	OnExecutionCompleted(ctx context.Context, exec *WorkflowExecution)

	// OnExecutionFailed is called when an execution transitions to
	// StatusFailed.
	OnExecutionFailed(ctx context.Context, exec *WorkflowExecution, err error)

	// OnStepStart is called before each handler attempt.
	OnStepStart(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int)

	// OnStepCompleted is called after each handler attempt, for successes,
	// pauses (err == nil) and failures (err != nil) alike.
	OnStepCompleted(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnExecutionStart(ctx context.Context, exec *WorkflowExecution) {}
func (NoopObserver) OnExecutionPaused(ctx context.Context, exec *WorkflowExecution, stepID string) {
}
func (NoopObserver) OnExecutionCompleted(ctx context.Context, exec *WorkflowExecution) {}
func (NoopObserver) OnExecutionFailed(ctx context.Context, exec *WorkflowExecution, err error) {
}
func (NoopObserver) OnStepStart(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int) {
}
func (NoopObserver) OnStepCompleted(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnExecutionStart(ctx context.Context, exec *WorkflowExecution) {
	for _, o := range c.observers {
		o.OnExecutionStart(ctx, exec)
	}
}

func (c *CompositeObserver) OnExecutionPaused(ctx context.Context, exec *WorkflowExecution, stepID string) {
	for _, o := range c.observers {
		o.OnExecutionPaused(ctx, exec, stepID)
	}
}

func (c *CompositeObserver) OnExecutionCompleted(ctx context.Context, exec *WorkflowExecution) {
	for _, o := range c.observers {
		o.OnExecutionCompleted(ctx, exec)
	}
}

func (c *CompositeObserver) OnExecutionFailed(ctx context.Context, exec *WorkflowExecution, err error) {
	for _, o := range c.observers {
		o.OnExecutionFailed(ctx, exec, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, exec, stepID, attempt)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, exec, stepID, attempt, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs execution / step
// lifecycle events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnExecutionStart(ctx context.Context, exec *WorkflowExecution) {
	o.Logger.InfoContext(ctx, "execution_start",
		slog.String("workflow", exec.WorkflowID),
		slog.String("execution_id", exec.ID),
	)
}

func (o *LoggingObserver) OnExecutionPaused(ctx context.Context, exec *WorkflowExecution, stepID string) {
	o.Logger.InfoContext(ctx, "execution_paused",
		slog.String("workflow", exec.WorkflowID),
		slog.String("execution_id", exec.ID),
		slog.String("step", stepID),
	)
}

func (o *LoggingObserver) OnExecutionCompleted(ctx context.Context, exec *WorkflowExecution) {
	o.Logger.InfoContext(ctx, "execution_completed",
		slog.String("workflow", exec.WorkflowID),
		slog.String("execution_id", exec.ID),
	)
}

func (o *LoggingObserver) OnExecutionFailed(ctx context.Context, exec *WorkflowExecution, err error) {
	o.Logger.ErrorContext(ctx, "execution_failed",
		slog.String("workflow", exec.WorkflowID),
		slog.String("execution_id", exec.ID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("workflow", exec.WorkflowID),
		slog.String("execution_id", exec.ID),
		slog.String("step", stepID),
		slog.Int("attempt", attempt),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("workflow", exec.WorkflowID),
		slog.String("execution_id", exec.ID),
		slog.String("step", stepID),
		slog.Int("attempt", attempt),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	executionsStarted   atomic.Int64
	executionsPaused    atomic.Int64
	executionsCompleted atomic.Int64
	executionsFailed    atomic.Int64
	stepsCompleted      atomic.Int64
	totalStepDuration   atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	ExecutionsStarted   int64
	ExecutionsPaused    int64
	ExecutionsCompleted int64
	ExecutionsFailed    int64
	InFlightExecutions  int64

	StepsCompleted  int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnExecutionStart(ctx context.Context, exec *WorkflowExecution) {
	m.executionsStarted.Add(1)
}

func (m *BasicMetrics) OnExecutionPaused(ctx context.Context, exec *WorkflowExecution, stepID string) {
	m.executionsPaused.Add(1)
}

func (m *BasicMetrics) OnExecutionCompleted(ctx context.Context, exec *WorkflowExecution) {
	m.executionsCompleted.Add(1)
}

func (m *BasicMetrics) OnExecutionFailed(ctx context.Context, exec *WorkflowExecution, err error) {
	m.executionsFailed.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, exec *WorkflowExecution, stepID string, attempt int, err error, d time.Duration) {
	// Only count successful attempts for average duration.
	if err == nil {
		m.stepsCompleted.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.executionsStarted.Load()
	completed := m.executionsCompleted.Load()
	failed := m.executionsFailed.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		ExecutionsStarted:   started,
		ExecutionsPaused:    m.executionsPaused.Load(),
		ExecutionsCompleted: completed,
		ExecutionsFailed:    failed,
		InFlightExecutions:  started - completed - failed,
		StepsCompleted:      steps,
		AvgStepDuration:     avg,
	}
}
