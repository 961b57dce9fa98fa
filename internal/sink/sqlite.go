package sink

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/page-harvest/harvest/pkg/models"
)

// SQLiteSink writes records to a `records` table whose columns are the
// field names. Each row is one transactional insert, so the
// complete-row-or-nothing guarantee comes from the database itself.
type SQLiteSink struct {
	db     *sql.DB
	insert *sql.Stmt
	arity  int
}

// NewSQLite creates an unopened SQLite sink
func NewSQLite() *SQLiteSink { return &SQLiteSink{} }

// Open removes any prior database file and opens a fresh one
func (s *SQLiteSink) Open(path string) error {
	if s.db != nil {
		return fmt.Errorf("sink already open")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove prior output: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

// WriteHeader creates the records table with one TEXT column per field
func (s *SQLiteSink) WriteHeader(names []string) error {
	if s.db == nil {
		return fmt.Errorf("sink not open")
	}
	if s.insert != nil {
		return fmt.Errorf("header already written")
	}

	cols := make([]string, len(names))
	params := make([]string, len(names))
	for i, name := range names {
		cols[i] = quoteIdent(name) + " TEXT"
		params[i] = "?"
	}

	ddl := fmt.Sprintf("CREATE TABLE records (%s)", strings.Join(cols, ", "))
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	stmt, err := s.db.Prepare(fmt.Sprintf(
		"INSERT INTO records (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(params, ", "),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	s.insert = stmt
	s.arity = len(names)
	return nil
}

// WriteRow inserts one record
func (s *SQLiteSink) WriteRow(rec models.Record) error {
	if s.db == nil {
		return fmt.Errorf("sink not open")
	}
	if s.insert == nil {
		return fmt.Errorf("header not written")
	}
	if err := checkArity(rec, s.arity); err != nil {
		return err
	}
	args := make([]any, len(rec))
	for i, v := range rec {
		args[i] = v
	}
	if _, err := s.insert.Exec(args...); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// Close closes the prepared statement and database
func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	if s.insert != nil {
		_ = s.insert.Close()
		s.insert = nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
