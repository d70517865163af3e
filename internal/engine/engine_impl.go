package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/calderhq/calder/internal/persistence"
	"github.com/calderhq/calder/pkg/api"
)

// engineImpl is a single-process engine implementation: in-memory
// registries, a pluggable ExecutionStore and a scheduler that runs each
// execution on its own goroutine under a per-execution lock.
type engineImpl struct {
	steps     *stepRegistry
	workflows *workflowRegistry
	store     persistence.ExecutionStore
	scheduler *scheduler
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the constructors.
type Config struct {
	Store    persistence.ExecutionStore
	Observer api.Observer
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	steps := newStepRegistry()
	workflows := newWorkflowRegistry()
	return &engineImpl{
		steps:     steps,
		workflows: workflows,
		store:     cfg.Store,
		scheduler: newScheduler(steps, workflows, cfg.Store, obs),
	}
}

// NewInMemoryEngine returns an Engine backed by a non-durable in-memory
// store. Best for tests and local development.
func NewInMemoryEngine() api.Engine {
	return NewInMemoryEngineWithObserver(nil)
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given
// Observer.
func NewInMemoryEngineWithObserver(obs api.Observer) api.Engine {
	return NewEngineWithConfig(Config{
		Store:    persistence.NewInMemoryStore(),
		Observer: obs,
	})
}

// NewSQLiteEngine returns an Engine that persists executions in a SQLite
// database. Step and workflow definitions stay in-memory and are
// re-registered at process start.
func NewSQLiteEngine(db *sql.DB) (api.Engine, error) {
	return NewSQLiteEngineWithObserver(db, nil)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the
// given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, obs api.Observer) (api.Engine, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{
		Store:    store,
		Observer: obs,
	}), nil
}

// NewRedisEngine returns an Engine that persists executions in Redis.
func NewRedisEngine(client *redis.Client) api.Engine {
	return NewRedisEngineWithObserver(client, nil)
}

// NewRedisEngineWithObserver returns a Redis-backed Engine with the given
// Observer.
func NewRedisEngineWithObserver(client *redis.Client, obs api.Observer) api.Engine {
	return NewEngineWithConfig(Config{
		Store:    persistence.NewRedisStore(client, "calder:"),
		Observer: obs,
	})
}

func (e *engineImpl) RegisterStep(def api.StepDefinition) error {
	return e.steps.Register(def)
}

func (e *engineImpl) RegisterWorkflow(def api.WorkflowDefinition) error {
	// Reject dangling step references at registration time so Start never
	// has to fail an execution over a typo.
	for _, stepID := range def.Steps {
		if _, err := e.steps.Resolve(stepID); err != nil {
			return fmt.Errorf("workflow %q: %w", def.ID, err)
		}
	}
	return e.workflows.Register(def)
}

func (e *engineImpl) Start(ctx context.Context, workflowID string, input any) (*api.WorkflowExecution, error) {
	return e.scheduler.start(ctx, workflowID, input)
}

func (e *engineImpl) GetExecution(ctx context.Context, id string) (*api.WorkflowExecution, error) {
	exec, err := e.store.GetExecution(id)
	if err != nil {
		if errors.Is(err, api.ErrExecutionNotFound) {
			return nil, fmt.Errorf("execution %q: %w", id, api.ErrExecutionNotFound)
		}
		return nil, err
	}
	return exec, nil
}

func (e *engineImpl) ListExecutions(ctx context.Context, opts api.ExecutionListOptions) ([]*api.WorkflowExecution, error) {
	return e.store.ListExecutions(persistence.ExecutionFilter{
		WorkflowID: opts.WorkflowID,
		Status:     opts.Status,
	})
}

func (e *engineImpl) Signal(ctx context.Context, id, name string, payload any) (api.SignalResult, error) {
	return e.scheduler.deliverSignal(ctx, id, name, payload)
}
