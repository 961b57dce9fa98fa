package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/page-harvest/harvest/pkg/models"
)

func openCSV(t *testing.T, path string) *CSVSink {
	t.Helper()
	s := NewCSV()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestCSVSink_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := openCSV(t, path)

	if err := s.WriteHeader([]string{"Title", "Price"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := s.WriteRow(models.Record{"A Book", "£10.00"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "Title,Price" {
		t.Errorf("Unexpected header %q", lines[0])
	}
}

func TestCSVSink_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := openCSV(t, path)
	defer s.Close()

	if err := s.WriteHeader([]string{"a"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := s.WriteHeader([]string{"a"}); err == nil {
		t.Error("Expected error on second WriteHeader, got nil")
	}
}

func TestCSVSink_RowBeforeHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := openCSV(t, path)
	defer s.Close()

	if err := s.WriteRow(models.Record{"x"}); err == nil {
		t.Error("Expected error writing a row before the header, got nil")
	}
}

func TestCSVSink_ArityMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := openCSV(t, path)
	defer s.Close()

	if err := s.WriteHeader([]string{"a", "b"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := s.WriteRow(models.Record{"only one"}); err == nil {
		t.Error("Expected arity error, got nil")
	}
}

func TestCSVSink_ReopenTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	s := openCSV(t, path)
	if err := s.WriteHeader([]string{"a"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := s.WriteRow(models.Record{"first run"}); err != nil {
			t.Fatalf("WriteRow failed: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s = openCSV(t, path)
	if err := s.WriteHeader([]string{"a"}); err != nil {
		t.Fatalf("WriteHeader failed after reopen: %v", err)
	}
	if err := s.WriteRow(models.Record{"second run"}); err != nil {
		t.Fatalf("WriteRow failed after reopen: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(content), "first run") {
		t.Error("Output contains rows from a prior run")
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 lines after reopen, got %d", len(lines))
	}
}

func TestCSVSink_Escaping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := openCSV(t, path)

	if err := s.WriteHeader([]string{"text", "note"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	row := models.Record{`has "quotes", commas`, "and\nnewlines"}
	if err := s.WriteRow(row); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected header and one row, got %d records", len(records))
	}
	if records[1][0] != row[0] || records[1][1] != row[1] {
		t.Errorf("Round trip mismatch: got %v", records[1])
	}
}
