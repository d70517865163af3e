package persistence

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/calderhq/calder/pkg/api"
)

// SQLiteStore is an ExecutionStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
//
// The full execution record is stored as a gob blob; workflow ID and
// status are mirrored into columns so ListExecutions can filter in SQL.
type SQLiteStore struct {
	db *sql.DB
}

var _ ExecutionStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			status TEXT NOT NULL,
			record BLOB NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) SaveExecution(exec *api.WorkflowExecution) error {
	record, err := EncodeExecution(exec)
	if err != nil {
		return err
	}

	// Single-statement upsert keeps the write atomic: a concurrent reader
	// sees either the old record or the new one, never a mix.
	_, err = s.db.Exec(`
		INSERT INTO executions (id, workflow_id, status, record)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workflow_id = excluded.workflow_id,
			status = excluded.status,
			record = excluded.record`,
		exec.ID,
		exec.WorkflowID,
		string(exec.Status),
		record,
	)
	return err
}

func (s *SQLiteStore) GetExecution(id string) (*api.WorkflowExecution, error) {
	row := s.db.QueryRow(`SELECT record FROM executions WHERE id = ?`, id)

	var record []byte
	if err := row.Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, api.ErrExecutionNotFound
		}
		return nil, err
	}
	return DecodeExecution(record)
}

func (s *SQLiteStore) ListExecutions(filter ExecutionFilter) ([]*api.WorkflowExecution, error) {
	query := `SELECT record FROM executions`
	var args []any
	var clauses []string

	if filter.WorkflowID != "" {
		clauses = append(clauses, "workflow_id = ?")
		args = append(args, filter.WorkflowID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []*api.WorkflowExecution
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		exec, err := DecodeExecution(record)
		if err != nil {
			return nil, err
		}
		executions = append(executions, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return executions, nil
}
