package persistence

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/calderhq/calder/pkg/api"
)

type storeFactory func(t *testing.T) ExecutionStore

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"in-memory": func(t *testing.T) ExecutionStore {
			return NewInMemoryStore()
		},
		"sqlite": func(t *testing.T) ExecutionStore {
			db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "store.db"))
			if err != nil {
				t.Fatalf("sql.Open failed: %v", err)
			}
			t.Cleanup(func() { _ = db.Close() })

			store, err := NewSQLiteStore(db)
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			return store
		},
	}
}

// sampleExecution builds a record exercising every field the stores have
// to round-trip: timestamps, logs, outputs and the signal bag.
func sampleExecution(id, workflowID string, status api.Status) *api.WorkflowExecution {
	started := time.Now().Truncate(time.Millisecond)
	stepDone := started.Add(10 * time.Millisecond)

	return &api.WorkflowExecution{
		ID:          id,
		WorkflowID:  workflowID,
		Status:      status,
		CurrentStep: "second",
		Input:       map[string]any{"n": 1},
		StartedAt:   started,
		Steps: []api.StepExecution{
			{
				StepID:      "first",
				Status:      api.StepCompleted,
				Attempts:    2,
				StartedAt:   &started,
				CompletedAt: &stepDone,
				Output:      map[string]any{"n": 2},
				Logs: []api.LogEntry{
					{Time: started, Message: "attempt 1/3"},
					{Time: stepDone, Message: "completed", Data: map[string]any{"n": 2}},
				},
			},
			{StepID: "second", Status: api.StepRunning, Attempts: 1},
		},
		Signals: map[string]api.Signal{
			"go": {Payload: "now", ReceivedAt: started},
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			want := sampleExecution("e-1", "wf", api.StatusRunning)
			if err := store.SaveExecution(want); err != nil {
				t.Fatalf("SaveExecution failed: %v", err)
			}

			got, err := store.GetExecution("e-1")
			if err != nil {
				t.Fatalf("GetExecution failed: %v", err)
			}

			if got.ID != want.ID || got.WorkflowID != want.WorkflowID || got.Status != want.Status {
				t.Fatalf("header mismatch: %+v", got)
			}
			if got.CurrentStep != "second" {
				t.Fatalf("CurrentStep lost: %q", got.CurrentStep)
			}
			if len(got.Steps) != 2 {
				t.Fatalf("expected 2 steps, got %d", len(got.Steps))
			}

			first := got.Step("first")
			if first.Attempts != 2 || first.Status != api.StepCompleted {
				t.Fatalf("step record mismatch: %+v", first)
			}
			out, ok := first.Output.(map[string]any)
			if !ok || out["n"] != 2 {
				t.Fatalf("step output lost: %#v", first.Output)
			}
			if len(first.Logs) != 2 || first.Logs[0].Message != "attempt 1/3" {
				t.Fatalf("step logs lost: %+v", first.Logs)
			}

			sig, ok := got.Signals["go"]
			if !ok || sig.Payload != "now" {
				t.Fatalf("signal bag lost: %+v", got.Signals)
			}
		})
	}
}

func TestStore_SaveIsUpsert(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			exec := sampleExecution("e-1", "wf", api.StatusRunning)
			if err := store.SaveExecution(exec); err != nil {
				t.Fatalf("first save failed: %v", err)
			}

			exec.Status = api.StatusCompleted
			now := time.Now()
			exec.CompletedAt = &now
			exec.CurrentStep = ""
			if err := store.SaveExecution(exec); err != nil {
				t.Fatalf("second save failed: %v", err)
			}

			got, err := store.GetExecution("e-1")
			if err != nil {
				t.Fatalf("GetExecution failed: %v", err)
			}
			if got.Status != api.StatusCompleted {
				t.Fatalf("expected updated status, got %s", got.Status)
			}
			if got.CompletedAt == nil {
				t.Fatal("CompletedAt not updated")
			}

			// Still exactly one record.
			all, err := store.ListExecutions(ExecutionFilter{})
			if err != nil {
				t.Fatalf("ListExecutions failed: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("upsert duplicated the record: %d entries", len(all))
			}
		})
	}
}

func TestStore_GetUnknown(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			_, err := store.GetExecution("missing")
			if !errors.Is(err, api.ErrExecutionNotFound) {
				t.Fatalf("expected ErrExecutionNotFound, got %v", err)
			}
		})
	}
}

func TestStore_ListFilters(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			seed := []*api.WorkflowExecution{
				sampleExecution("e-1", "wf-a", api.StatusRunning),
				sampleExecution("e-2", "wf-a", api.StatusCompleted),
				sampleExecution("e-3", "wf-b", api.StatusCompleted),
			}
			for _, exec := range seed {
				if err := store.SaveExecution(exec); err != nil {
					t.Fatalf("SaveExecution %s failed: %v", exec.ID, err)
				}
			}

			cases := []struct {
				name   string
				filter ExecutionFilter
				want   int
			}{
				{"all", ExecutionFilter{}, 3},
				{"by workflow", ExecutionFilter{WorkflowID: "wf-a"}, 2},
				{"by status", ExecutionFilter{Status: api.StatusCompleted}, 2},
				{"by both", ExecutionFilter{WorkflowID: "wf-a", Status: api.StatusCompleted}, 1},
				{"no match", ExecutionFilter{WorkflowID: "wf-c"}, 0},
			}
			for _, tc := range cases {
				got, err := store.ListExecutions(tc.filter)
				if err != nil {
					t.Fatalf("%s: ListExecutions failed: %v", tc.name, err)
				}
				if len(got) != tc.want {
					t.Fatalf("%s: expected %d executions, got %d", tc.name, tc.want, len(got))
				}
			}
		})
	}
}

func TestStore_ReadsAreIsolated(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			if err := store.SaveExecution(sampleExecution("e-1", "wf", api.StatusRunning)); err != nil {
				t.Fatalf("SaveExecution failed: %v", err)
			}

			got, err := store.GetExecution("e-1")
			if err != nil {
				t.Fatalf("GetExecution failed: %v", err)
			}

			// Mutating a returned record must not leak back into the store.
			got.Status = api.StatusFailed
			got.Steps[0].Attempts = 99

			again, err := store.GetExecution("e-1")
			if err != nil {
				t.Fatalf("second GetExecution failed: %v", err)
			}
			if again.Status != api.StatusRunning || again.Steps[0].Attempts != 2 {
				t.Fatal("store record aliased a reader's copy")
			}
		})
	}
}
