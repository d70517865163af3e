package persistence

import (
	"sync"

	"github.com/calderhq/calder/pkg/api"
)

// InMemoryStore is a goroutine-safe ExecutionStore backed by a map.
// It is non-durable and intended for tests and local development.
//
// Records are cloned on write and on read so that engine mutations of a
// live execution never alias a snapshot previously handed to a reader.
type InMemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*api.WorkflowExecution
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		executions: make(map[string]*api.WorkflowExecution),
	}
}

var _ ExecutionStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveExecution(exec *api.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[exec.ID] = exec.Clone()
	return nil
}

func (s *InMemoryStore) GetExecution(id string) (*api.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, api.ErrExecutionNotFound
	}
	return exec.Clone(), nil
}

func (s *InMemoryStore) ListExecutions(filter ExecutionFilter) ([]*api.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.WorkflowExecution
	for _, exec := range s.executions {
		if filter.WorkflowID != "" && exec.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.Status != "" && exec.Status != filter.Status {
			continue
		}
		result = append(result, exec.Clone())
	}
	return result, nil
}
