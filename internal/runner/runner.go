// Package runner owns the paginated extraction loop: it orders pages,
// bounds iteration, and aggregates failures, leaving fetching, extraction,
// and writing to its collaborators.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/page-harvest/harvest/internal/archive"
	"github.com/page-harvest/harvest/internal/extract"
	"github.com/page-harvest/harvest/internal/pagesource"
	"github.com/page-harvest/harvest/internal/sink"
	"github.com/page-harvest/harvest/pkg/models"
)

// State is the run lifecycle position
type State int

const (
	StateIdle State = iota
	StateOpening
	StateRunning
	StateDraining
	StateClosed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Runner executes one extraction run. It owns the page source and the sink
// for the run's lifetime; a Runner is single-use and single-threaded.
type Runner struct {
	pageSpec   models.PageSpec
	fieldSpec  models.FieldSpec
	source     pagesource.Source
	sink       sink.RowSink
	outputPath string
	extractor  *extract.Extractor

	// Archiver, when set, saves the HTML of failed pages for inspection
	Archiver *archive.Archiver
	// OnPage, when set, is called after each page iteration completes
	OnPage func(models.PageResult)

	state State
}

// New creates a Runner for one run
func New(pageSpec models.PageSpec, fieldSpec models.FieldSpec, src pagesource.Source, snk sink.RowSink, outputPath string) *Runner {
	return &Runner{
		pageSpec:   pageSpec,
		fieldSpec:  fieldSpec,
		source:     src,
		sink:       snk,
		outputPath: outputPath,
		extractor:  extract.New(),
		state:      StateIdle,
	}
}

// State reports the runner's lifecycle position
func (r *Runner) State() State { return r.state }

// Run executes the extraction. The summary is always returned, even on
// abort, and both the source and the sink are released on every exit path.
// Cancellation is honored between pages; an in-flight page may complete.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	summary := &models.RunSummary{}

	r.state = StateOpening
	log.Debug().
		Str("kind", string(r.pageSpec.Kind)).
		Int("pages", r.pageSpec.Pages).
		Str("output", r.outputPath).
		Msg("Opening run")

	if err := r.sink.Open(r.outputPath); err != nil {
		r.state = StateAborted
		return summary, fmt.Errorf("failed to open sink: %w", err)
	}
	if err := r.source.Open(ctx); err != nil {
		r.drain()
		r.state = StateAborted
		return summary, err
	}

	r.state = StateRunning
	fatalErr := r.iterate(ctx, summary)

	r.drain()
	if fatalErr != nil {
		r.state = StateAborted
	} else {
		r.state = StateClosed
	}

	log.Info().
		Int("pages_attempted", summary.PagesAttempted).
		Int("pages_succeeded", summary.PagesSucceeded).
		Int("records_written", summary.RecordsWritten).
		Int("failures", len(summary.Failures)).
		Str("state", r.state.String()).
		Msg("Run finished")
	return summary, fatalErr
}

// iterate runs the page loop. A non-nil return is a fatal error; page-level
// failures are recorded in the summary instead.
func (r *Runner) iterate(ctx context.Context, summary *models.RunSummary) error {
	headerWritten := false

	for page := 1; page <= r.pageSpec.Pages; page++ {
		if ctx.Err() != nil {
			log.Warn().Int("page", page).Msg("Run cancelled")
			return nil
		}

		summary.PagesAttempted++
		result := models.PageResult{Page: page}

		doc, err := r.source.Content(ctx, page)
		if err != nil {
			result.Status = models.PageFailed
			result.Reason = reasonOf(err)
			summary.Failures = append(summary.Failures, models.PageFailure{Page: page, Reason: result.Reason})
			log.Warn().Int("page", page).Err(err).Msg("Page failed")
		} else {
			records, warnings := r.extractor.Extract(doc, r.fieldSpec)
			for _, w := range warnings {
				log.Debug().
					Int("page", page).
					Int("row", w.Row).
					Str("field", w.Field).
					Str("kind", string(w.Kind)).
					Msg("Extraction warning")
			}

			if len(records) == 0 && len(warnings) > 0 {
				// Rows were present but nothing usable came out
				result.Status = models.PageFailed
				result.Reason = "no records extracted"
				summary.Failures = append(summary.Failures, models.PageFailure{Page: page, Reason: result.Reason})
				if r.Archiver != nil {
					if aerr := r.Archiver.SavePage(page, doc); aerr != nil {
						log.Warn().Int("page", page).Err(aerr).Msg("Failed to archive page")
					}
				}
				log.Warn().Int("page", page).Int("warnings", len(warnings)).Msg("Page yielded no records")
			} else {
				if !headerWritten {
					if err := r.sink.WriteHeader(r.fieldSpec.Names()); err != nil {
						return fmt.Errorf("sink header write failed: %w", err)
					}
					headerWritten = true
				}
				for _, rec := range records {
					if err := r.sink.WriteRow(rec); err != nil {
						// Durability can no longer be guaranteed
						return fmt.Errorf("sink row write failed on page %d: %w", page, err)
					}
					summary.RecordsWritten++
				}
				result.Status = models.PageOk
				result.Records = records
				summary.PagesSucceeded++
				log.Info().Int("page", page).Int("records", len(records)).Msg("Page done")
			}
		}

		if r.OnPage != nil {
			r.OnPage(result)
		}

		if r.pageSpec.Kind == models.KindInteractive && page < r.pageSpec.Pages {
			if done := r.advance(ctx, page, summary); done {
				return nil
			}
		}
	}
	return nil
}

// advance moves an interactive session forward, retrying one consecutive
// timeout. It returns true when the run should terminate early.
func (r *Runner) advance(ctx context.Context, page int, summary *models.RunSummary) bool {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		err := r.source.Advance(ctx, page)
		if err == nil {
			return false
		}

		var navErr *pagesource.NavigationError
		if errors.As(err, &navErr) {
			// Expected end of pagination, not a failure
			log.Info().Int("page", page).Msg("Reached last page")
			return true
		}

		var toErr *pagesource.TimeoutError
		if errors.As(err, &toErr) {
			lastErr = err
			log.Warn().Int("page", page).Int("attempt", attempt+1).Err(err).Msg("Advance timed out")
			continue
		}

		lastErr = err
		break
	}

	summary.Failures = append(summary.Failures, models.PageFailure{Page: page + 1, Reason: reasonOf(lastErr)})
	log.Warn().Int("page", page).Err(lastErr).Msg("Terminating run early")
	return true
}

// drain releases the source and the sink regardless of how Running exited
func (r *Runner) drain() {
	r.state = StateDraining
	if err := r.source.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing page source")
	}
	if err := r.sink.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing sink")
	}
}

// reasonOf renders a failure entry reason with the error kind up front
func reasonOf(err error) string {
	var fetchErr *pagesource.FetchError
	if errors.As(err, &fetchErr) {
		return fmt.Sprintf("FetchError: %v", fetchErr)
	}
	var toErr *pagesource.TimeoutError
	if errors.As(err, &toErr) {
		return fmt.Sprintf("TimeoutError: %v", toErr)
	}
	var navErr *pagesource.NavigationError
	if errors.As(err, &navErr) {
		return fmt.Sprintf("NavigationError: %v", navErr)
	}
	return err.Error()
}
