// Package pagesource yields raw page content for an extraction run.
//
// Two variants exist: StaticSource fetches each page independently by URL
// template, InteractiveSource drives one long-lived browser session that is
// advanced between pages. Both satisfy Source so the run loop is identical
// for either kind.
package pagesource

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Source is the capability set the run loop requires from a page provider
type Source interface {
	// Open prepares the source. For interactive sources this establishes
	// the session, loads the entry point, and blocks (bounded) until the
	// readiness condition holds.
	Open(ctx context.Context) error

	// Content returns the parsed document for the given page index. Static
	// sources fetch it; interactive sources snapshot current session state,
	// in which case the index is advisory.
	Content(ctx context.Context, page int) (*goquery.Document, error)

	// Advance moves an interactive session from page n to n+1. It must be
	// called exactly once between consecutive pages. A missing or
	// non-interactable navigation control yields a NavigationError, the
	// natural end-of-pagination signal. Static sources treat it as a no-op.
	Advance(ctx context.Context, page int) error

	// Close releases the source. It must be safe to call on every exit
	// path, including after a failed Open.
	Close() error

	// Name identifies the source implementation for logging
	Name() string
}

// FetchError reports a transport or status failure for a single page.
// It is page-level and non-fatal: the run records it and continues.
type FetchError struct {
	Page   int
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch page %d (%s): HTTP %d", e.Page, e.URL, e.Status)
	}
	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NavigationError signals that the navigation control is absent or not
// interactable. For interactive sources this is the expected way to learn
// the last page has been reached; it is not a failure.
type NavigationError struct {
	Page     int
	Selector string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("no navigation control %q after page %d", e.Selector, e.Page)
}

// TimeoutError reports a bounded wait that elapsed, either on the readiness
// condition at Open (fatal) or on an Advance mid-run (escalates after two in
// a row).
type TimeoutError struct {
	Stage string
	Wait  time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Stage, e.Wait)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
