package models

import (
	"fmt"
	"strings"
)

// SourceKind selects how pages are obtained
type SourceKind string

const (
	// KindStatic addresses each page by substituting the page index into a URL template
	KindStatic SourceKind = "static"
	// KindInteractive drives a long-lived browser session that is advanced between pages
	KindInteractive SourceKind = "interactive"
)

// PageSpec describes where pages come from and how many to visit.
// It is immutable after construction; build one with NewPageSpec.
type PageSpec struct {
	Kind SourceKind
	// Pages is the upper bound on pages to visit (>= 1)
	Pages int
	// Target is a URL template containing a single %d verb for static
	// sources, or the entry-point URL for interactive sources
	Target string
	// NavSelector locates the navigation control clicked between pages.
	// Required for interactive sources, unused for static ones.
	NavSelector string
}

// NewPageSpec validates and builds a PageSpec. All checks happen here,
// before any network or session activity.
func NewPageSpec(kind SourceKind, pages int, target, navSelector string) (PageSpec, error) {
	if kind != KindStatic && kind != KindInteractive {
		return PageSpec{}, &ConfigError{Field: "kind", Reason: fmt.Sprintf("unknown source kind %q", kind)}
	}
	if pages < 1 {
		return PageSpec{}, &ConfigError{Field: "pages", Reason: "page count must be >= 1"}
	}
	if strings.TrimSpace(target) == "" {
		return PageSpec{}, &ConfigError{Field: "target", Reason: "URL template or entry point must not be empty"}
	}
	if kind == KindStatic && strings.Count(target, "%d") != 1 {
		return PageSpec{}, &ConfigError{Field: "target", Reason: "static URL template must contain exactly one %d verb"}
	}
	if kind == KindInteractive && strings.TrimSpace(navSelector) == "" {
		return PageSpec{}, &ConfigError{Field: "nav_selector", Reason: "interactive sources require a navigation selector"}
	}
	return PageSpec{Kind: kind, Pages: pages, Target: target, NavSelector: navSelector}, nil
}

// PageURL substitutes the page index into a static spec's URL template
func (p PageSpec) PageURL(page int) string {
	return fmt.Sprintf(p.Target, page)
}

// FieldRule maps one named output field to an extraction rule
type FieldRule struct {
	// Name is the header/column name for the field
	Name string
	// Selector is resolved within each row-element's subtree; the first
	// match in document order wins
	Selector string
	// Attr names the attribute to read instead of the element text.
	// The special value "html" captures the element's sanitized inner HTML.
	Attr string
	// Required drops the whole record when the selector matches nothing
	Required bool
	// Transform is an optional JavaScript expression applied to the raw
	// value; the extracted string is bound as `value`
	Transform string
}

// FieldSpec is the declarative description of one record: a row selector
// matching the repeating structural unit on a page, plus an ordered set of
// field rules resolved inside each match. Immutable after construction.
type FieldSpec struct {
	RowSelector string
	Fields      []FieldRule
}

// NewFieldSpec validates and builds a FieldSpec
func NewFieldSpec(rowSelector string, fields []FieldRule) (FieldSpec, error) {
	if strings.TrimSpace(rowSelector) == "" {
		return FieldSpec{}, &ConfigError{Field: "row_selector", Reason: "row selector must not be empty"}
	}
	if len(fields) == 0 {
		return FieldSpec{}, &ConfigError{Field: "fields", Reason: "at least one field is required"}
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return FieldSpec{}, &ConfigError{Field: fmt.Sprintf("fields[%d].name", i), Reason: "field name must not be empty"}
		}
		if seen[f.Name] {
			return FieldSpec{}, &ConfigError{Field: fmt.Sprintf("fields[%d].name", i), Reason: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[f.Name] = true
		if strings.TrimSpace(f.Selector) == "" {
			return FieldSpec{}, &ConfigError{Field: fmt.Sprintf("fields[%d].selector", i), Reason: "field selector must not be empty"}
		}
	}
	out := FieldSpec{RowSelector: rowSelector, Fields: make([]FieldRule, len(fields))}
	copy(out.Fields, fields)
	return out, nil
}

// Names returns the field names in declaration order
func (f FieldSpec) Names() []string {
	names := make([]string, len(f.Fields))
	for i, rule := range f.Fields {
		names[i] = rule.Name
	}
	return names
}

// Record is one extracted row: an ordered tuple of string values with the
// same arity and order as the FieldSpec it was produced from
type Record []string

// PageStatus reports how a single page iteration went
type PageStatus string

const (
	PageOk     PageStatus = "ok"
	PageFailed PageStatus = "failed"
)

// PageResult is the outcome of one page iteration. It is consumed by the
// sink immediately and not retained, so memory stays bounded to one page.
type PageResult struct {
	Page    int
	Records []Record
	Status  PageStatus
	Reason  string
}

// PageFailure is one entry in the run summary's failure list
type PageFailure struct {
	Page   int    `json:"page"`
	Reason string `json:"reason"`
}

// RunSummary is the terminal report of an extraction run. It is the sole
// structured output a wrapping CLI consumes.
type RunSummary struct {
	PagesAttempted int           `json:"pages_attempted"`
	PagesSucceeded int           `json:"pages_succeeded"`
	RecordsWritten int           `json:"records_written"`
	Failures       []PageFailure `json:"failures,omitempty"`
}

// ConfigError reports an invalid spec. It is fatal and raised pre-flight,
// before any fetch or session is opened.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}
