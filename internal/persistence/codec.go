package persistence

import (
	"bytes"
	"encoding/gob"

	"github.com/calderhq/calder/pkg/api"
)

func init() {
	// Dynamic types that commonly appear in opaque inputs, outputs and
	// signal payloads. Callers using their own struct types must register
	// them with gob.Register, as with any gob payload.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(api.Signal{})
}

// EncodeExecution serializes a full execution record using encoding/gob.
// Opaque values (Input, step Outputs, signal payloads) must be
// gob-encodable.
func EncodeExecution(exec *api.WorkflowExecution) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(exec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeExecution is the inverse of EncodeExecution.
func DecodeExecution(data []byte) (*api.WorkflowExecution, error) {
	var exec api.WorkflowExecution
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&exec); err != nil {
		return nil, err
	}
	return &exec, nil
}
