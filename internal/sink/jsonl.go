package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/page-harvest/harvest/pkg/models"
)

// JSONLSink writes one JSON object per line, keyed by field name in
// FieldSpec order. The header call supplies the keys; no header line is
// emitted.
type JSONLSink struct {
	file  *os.File
	names []string
}

// NewJSONL creates an unopened JSONL sink
func NewJSONL() *JSONLSink { return &JSONLSink{} }

// Open truncates or creates the output file
func (s *JSONLSink) Open(path string) error {
	if s.file != nil {
		return fmt.Errorf("sink already open")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	s.file = f
	s.names = nil
	return nil
}

// WriteHeader records the field names used as object keys
func (s *JSONLSink) WriteHeader(names []string) error {
	if s.file == nil {
		return fmt.Errorf("sink not open")
	}
	if s.names != nil {
		return fmt.Errorf("header already written")
	}
	s.names = append([]string(nil), names...)
	return nil
}

// WriteRow appends one complete JSON line or leaves the output unchanged
func (s *JSONLSink) WriteRow(rec models.Record) error {
	if s.file == nil {
		return fmt.Errorf("sink not open")
	}
	if s.names == nil {
		return fmt.Errorf("header not written")
	}
	if err := checkArity(rec, len(s.names)); err != nil {
		return err
	}

	// Build the object by hand to preserve field order
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(rec[i])
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}\n")

	off, err := s.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := s.file.Write(buf.Bytes()); err != nil {
		_ = s.file.Truncate(off)
		_, _ = s.file.Seek(off, io.SeekStart)
		return err
	}
	return nil
}

// Close flushes and closes the output file
func (s *JSONLSink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
