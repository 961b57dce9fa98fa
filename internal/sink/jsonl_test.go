package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/page-harvest/harvest/pkg/models"
)

func TestJSONLSink_Rows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s := NewJSONL()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.WriteHeader([]string{"Author", "Text"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := s.WriteRow(models.Record{"Einstein", "A quote"}); err != nil {
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
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	var obj map[string]string
	if err := json.Unmarshal([]byte(lines[0]), &obj); err != nil {
		t.Fatalf("JSON parse failed: %v", err)
	}
	if obj["Author"] != "Einstein" || obj["Text"] != "A quote" {
		t.Errorf("Unexpected object %v", obj)
	}

	// Keys appear in FieldSpec order
	if !strings.HasPrefix(lines[0], `{"Author":`) {
		t.Errorf("Expected Author first, got %q", lines[0])
	}
}

func TestJSONLSink_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s := NewJSONL()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.WriteHeader([]string{"a"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := s.WriteHeader([]string{"a"}); err == nil {
		t.Error("Expected error on second WriteHeader, got nil")
	}
}
