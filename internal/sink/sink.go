// Package sink provides append-only, crash-safe writers for extracted
// records. Every accepted record becomes one durable, complete row or is
// not written at all.
package sink

import (
	"fmt"

	"github.com/page-harvest/harvest/pkg/models"
)

// RowSink writes records to a structured output. Open truncates any prior
// output, establishing a clean run. WriteHeader must be called exactly once
// before any row; the sink enforces this itself rather than having callers
// probe file state.
type RowSink interface {
	Open(path string) error
	WriteHeader(names []string) error
	WriteRow(rec models.Record) error
	Close() error
}

// Format names a sink implementation
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSONL  Format = "jsonl"
	FormatSQLite Format = "sqlite"
)

// New returns the sink for the given format
func New(format Format) (RowSink, error) {
	switch format {
	case FormatCSV, "":
		return NewCSV(), nil
	case FormatJSONL:
		return NewJSONL(), nil
	case FormatSQLite:
		return NewSQLite(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func checkArity(rec models.Record, arity int) error {
	if len(rec) != arity {
		return fmt.Errorf("record has %d fields, header has %d", len(rec), arity)
	}
	return nil
}
