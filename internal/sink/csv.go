package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/page-harvest/harvest/pkg/models"
)

// CSVSink writes RFC 4180 delimited rows, UTF-8, "\n" terminated on every
// platform. Each row is encoded fully in memory and written in one call, so
// a failed write never leaves a half-written row behind.
type CSVSink struct {
	file          *os.File
	headerWritten bool
	arity         int
}

// NewCSV creates an unopened CSV sink
func NewCSV() *CSVSink { return &CSVSink{} }

// Open truncates or creates the output file
func (s *CSVSink) Open(path string) error {
	if s.file != nil {
		return fmt.Errorf("sink already open")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	s.file = f
	s.headerWritten = false
	return nil
}

// WriteHeader writes the header row. It may be called exactly once, before
// any data row.
func (s *CSVSink) WriteHeader(names []string) error {
	if s.file == nil {
		return fmt.Errorf("sink not open")
	}
	if s.headerWritten {
		return fmt.Errorf("header already written")
	}
	line, err := encodeRow(names)
	if err != nil {
		return err
	}
	if err := s.writeAll(line); err != nil {
		return err
	}
	s.headerWritten = true
	s.arity = len(names)
	return nil
}

// WriteRow appends one complete record row or leaves the output unchanged
func (s *CSVSink) WriteRow(rec models.Record) error {
	if s.file == nil {
		return fmt.Errorf("sink not open")
	}
	if !s.headerWritten {
		return fmt.Errorf("header not written")
	}
	if err := checkArity(rec, s.arity); err != nil {
		return err
	}
	line, err := encodeRow(rec)
	if err != nil {
		return err
	}
	return s.writeAll(line)
}

// writeAll writes the encoded line in one call and rolls the file back to
// its prior length if the write fails partway
func (s *CSVSink) writeAll(line []byte) error {
	off, err := s.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := s.file.Write(line); err != nil {
		_ = s.file.Truncate(off)
		_, _ = s.file.Seek(off, io.SeekStart)
		return err
	}
	return nil
}

// Close flushes and closes the output file
func (s *CSVSink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func encodeRow(fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
