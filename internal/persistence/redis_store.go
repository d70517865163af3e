package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/calderhq/calder/pkg/api"
)

// RedisStore is an ExecutionStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>exec:<id>            => gob-encoded execution record
//	<prefix>idx:all              => SET of all execution IDs
//	<prefix>idx:wf:<workflow>    => SET of execution IDs for a workflow
//	<prefix>idx:status:<status>  => SET of execution IDs for a status
//
// The indexes are best-effort: they are always updated on save, may retain
// stale members after a status change, and ListExecutions re-filters by the
// loaded record so stale members are never returned.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ExecutionStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "calder:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "calder:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStore) keyExecution(id string) string {
	return r.prefix + "exec:" + id
}

func (r *RedisStore) keyAll() string {
	return r.prefix + "idx:all"
}

func (r *RedisStore) keyWorkflow(workflowID string) string {
	return r.prefix + "idx:wf:" + workflowID
}

func (r *RedisStore) keyStatus(status api.Status) string {
	return r.prefix + "idx:status:" + string(status)
}

func (r *RedisStore) SaveExecution(exec *api.WorkflowExecution) error {
	ctx := context.Background()

	record, err := EncodeExecution(exec)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.keyExecution(exec.ID), record, 0).Err(); err != nil {
		return err
	}

	// Index updates are best-effort; a failed index write is not fatal
	// because ListExecutions filters by the loaded record.
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, r.keyAll(), exec.ID)
	pipe.SAdd(ctx, r.keyWorkflow(exec.WorkflowID), exec.ID)
	pipe.SAdd(ctx, r.keyStatus(exec.Status), exec.ID)
	_, _ = pipe.Exec(ctx)

	return nil
}

func (r *RedisStore) GetExecution(id string) (*api.WorkflowExecution, error) {
	ctx := context.Background()

	record, err := r.client.Get(ctx, r.keyExecution(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, api.ErrExecutionNotFound
		}
		return nil, err
	}
	return DecodeExecution(record)
}

func (r *RedisStore) ListExecutions(filter ExecutionFilter) ([]*api.WorkflowExecution, error) {
	ctx := context.Background()

	var ids []string
	var err error

	switch {
	case filter.WorkflowID != "" && filter.Status != "":
		ids, err = r.client.SInter(ctx,
			r.keyWorkflow(filter.WorkflowID),
			r.keyStatus(filter.Status),
		).Result()
	case filter.WorkflowID != "":
		ids, err = r.client.SMembers(ctx, r.keyWorkflow(filter.WorkflowID)).Result()
	case filter.Status != "":
		ids, err = r.client.SMembers(ctx, r.keyStatus(filter.Status)).Result()
	default:
		ids, err = r.client.SMembers(ctx, r.keyAll()).Result()
	}
	if err != nil {
		return nil, err
	}

	var executions []*api.WorkflowExecution
	for _, id := range ids {
		exec, err := r.GetExecution(id)
		if err != nil {
			if errors.Is(err, api.ErrExecutionNotFound) {
				// Stale index member; skip.
				continue
			}
			return nil, err
		}

		// Re-check the filter against the record: the status index can
		// lag behind the payload after a transition.
		if filter.WorkflowID != "" && exec.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.Status != "" && exec.Status != filter.Status {
			continue
		}
		executions = append(executions, exec)
	}
	return executions, nil
}
