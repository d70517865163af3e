package engine

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/calderhq/calder/pkg/api"
)

// stepRegistry holds step definitions for the process lifetime.
// Definitions are not persisted; applications re-register them at startup.
type stepRegistry struct {
	mu   sync.RWMutex
	byID map[string]api.StepDefinition
}

func newStepRegistry() *stepRegistry {
	return &stepRegistry{byID: make(map[string]api.StepDefinition)}
}

// Register stores def by ID. Re-registering an identical definition is a
// no-op; a different definition under the same ID fails with
// api.ErrDuplicateDefinition.
func (r *stepRegistry) Register(def api.StepDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("step id is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("step %q has nil handler", def.ID)
	}
	if def.Name == "" {
		def.Name = def.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[def.ID]; ok {
		if sameStepDefinition(existing, def) {
			return nil
		}
		return fmt.Errorf("step %q: %w", def.ID, api.ErrDuplicateDefinition)
	}

	r.byID[def.ID] = def
	return nil
}

// Resolve returns the definition registered under id.
func (r *stepRegistry) Resolve(id string) (api.StepDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byID[id]
	if !ok {
		return api.StepDefinition{}, fmt.Errorf("step %q: %w", id, api.ErrDefinitionNotFound)
	}
	return def, nil
}

// sameStepDefinition reports whether two definitions have the same body.
// Handlers are funcs and cannot be compared structurally; identity of the
// underlying function is the closest meaningful equality.
func sameStepDefinition(a, b api.StepDefinition) bool {
	if a.Name != b.Name {
		return false
	}
	ap, bp := api.DefaultRetryPolicy(), api.DefaultRetryPolicy()
	if a.Retry != nil {
		ap = a.Retry.Normalize()
	}
	if b.Retry != nil {
		bp = b.Retry.Normalize()
	}
	if ap != bp {
		return false
	}
	return reflect.ValueOf(a.Handler).Pointer() == reflect.ValueOf(b.Handler).Pointer()
}

// workflowRegistry holds workflow definitions for the process lifetime.
type workflowRegistry struct {
	mu   sync.RWMutex
	byID map[string]api.WorkflowDefinition
}

func newWorkflowRegistry() *workflowRegistry {
	return &workflowRegistry{byID: make(map[string]api.WorkflowDefinition)}
}

// Register stores def by ID with the same idempotency semantics as
// stepRegistry.Register. The step IDs are copied so later caller mutations
// of the slice cannot reach the stored definition.
func (r *workflowRegistry) Register(def api.WorkflowDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("workflow id is required")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("workflow %q must have at least one step", def.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[def.ID]; ok {
		if slices.Equal(existing.Steps, def.Steps) {
			return nil
		}
		return fmt.Errorf("workflow %q: %w", def.ID, api.ErrDuplicateDefinition)
	}

	def.Steps = slices.Clone(def.Steps)
	r.byID[def.ID] = def
	return nil
}

// Resolve returns the definition registered under id.
func (r *workflowRegistry) Resolve(id string) (api.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byID[id]
	if !ok {
		return api.WorkflowDefinition{}, fmt.Errorf("workflow %q: %w", id, api.ErrDefinitionNotFound)
	}
	return def, nil
}
