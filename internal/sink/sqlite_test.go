package sink

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/page-harvest/harvest/pkg/models"
)

func TestSQLiteSink_Rows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	s := NewSQLite()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.WriteHeader([]string{"Title", "Price"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := s.WriteRow(models.Record{"A Book", "£10.00"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := s.WriteRow(models.Record{"Another", "£20.00"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows, got %d", count)
	}

	var title string
	if err := db.QueryRow(`SELECT "Title" FROM records LIMIT 1`).Scan(&title); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if title != "A Book" {
		t.Errorf("Unexpected title %q", title)
	}
}

func TestSQLiteSink_ReopenReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")

	for run := 0; run < 2; run++ {
		s := NewSQLite()
		if err := s.Open(path); err != nil {
			t.Fatalf("Open failed on run %d: %v", run, err)
		}
		if err := s.WriteHeader([]string{"v"}); err != nil {
			t.Fatalf("WriteHeader failed on run %d: %v", run, err)
		}
		if err := s.WriteRow(models.Record{"x"}); err != nil {
			t.Fatalf("WriteRow failed on run %d: %v", run, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed on run %d: %v", run, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected rows from the second run only, got %d", count)
	}
}
