package calder

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/calderhq/calder/internal/engine"
	"github.com/calderhq/calder/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	StepDefinition       = api.StepDefinition
	WorkflowDefinition   = api.WorkflowDefinition
	WorkflowExecution    = api.WorkflowExecution
	StepExecution        = api.StepExecution
	ExecutionListOptions = api.ExecutionListOptions
	Status               = api.Status
	StepStatus           = api.StepStatus
	Handler              = api.Handler
	StepContext          = api.StepContext
	Outcome              = api.Outcome
	RetryPolicy          = api.RetryPolicy
	Signal               = api.Signal
	SignalResult         = api.SignalResult
	LogEntry             = api.LogEntry
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export outcome constructors and observer helpers.

var (
	Done  = api.Done
	Pause = api.Pause
	Fail  = api.Fail
	Failf = api.Failf

	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export sentinel errors for errors.Is checks against facade calls.

var (
	ErrDuplicateDefinition = api.ErrDuplicateDefinition
	ErrDefinitionNotFound  = api.ErrDefinitionNotFound
	ErrExecutionNotFound   = api.ErrExecutionNotFound
)

// Re-export status and signal-result values for convenience.

const (
	StatusRunning   = api.StatusRunning
	StatusPaused    = api.StatusPaused
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed

	StepPending   = api.StepPending
	StepRunning   = api.StepRunning
	StepRetrying  = api.StepRetrying
	StepCompleted = api.StepCompleted
	StepFailed    = api.StepFailed

	SignalDelivered = api.SignalDelivered
	SignalNotFound  = api.SignalNotFound
	SignalIgnored   = api.SignalIgnored
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by an in-memory store.
func NewInMemoryEngine() Engine {
	return engine.NewInMemoryEngine()
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(obs Observer) Engine {
	return engine.NewInMemoryEngineWithObserver(obs)
}

// NewSQLiteEngine returns an Engine that persists executions in a SQLite
// database. Step and workflow definitions are kept in-memory.
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngine(db)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, obs Observer) (Engine, error) {
	return engine.NewSQLiteEngineWithObserver(db, obs)
}

// NewRedisEngine returns an Engine that persists executions in Redis.
func NewRedisEngine(client *redis.Client) Engine {
	return engine.NewRedisEngine(client)
}

// NewRedisEngineWithObserver returns a Redis-backed Engine with the given Observer.
func NewRedisEngineWithObserver(client *redis.Client, obs Observer) Engine {
	return engine.NewRedisEngineWithObserver(client, obs)
}

// Convenience helpers that just forward to the underlying Engine.

// Start begins a new execution of a registered workflow.
func Start(ctx context.Context, eng Engine, workflowID string, input any) (*WorkflowExecution, error) {
	return eng.Start(ctx, workflowID, input)
}

// GetExecution fetches an execution by ID.
func GetExecution(ctx context.Context, eng Engine, id string) (*WorkflowExecution, error) {
	return eng.GetExecution(ctx, id)
}

// ListExecutions lists executions according to the given options.
func ListExecutions(ctx context.Context, eng Engine, opts ExecutionListOptions) ([]*WorkflowExecution, error) {
	return eng.ListExecutions(ctx, opts)
}

// SignalExecution delivers a named signal to an execution.
func SignalExecution(ctx context.Context, eng Engine, id, name string, payload any) (SignalResult, error) {
	return eng.Signal(ctx, id, name, payload)
}
