package pagesource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/page-harvest/harvest/internal/ratelimit"
	"github.com/page-harvest/harvest/internal/retry"
	"github.com/page-harvest/harvest/pkg/models"
)

// StaticSource fetches each page with one HTTP request, substituting the
// page index into a URL template. Pages are independent and may be fetched
// in any order; Advance is a no-op.
type StaticSource struct {
	spec      models.PageSpec
	client    *http.Client
	limiter   ratelimit.Limiter
	retryCfg  retry.Config
	timeout   time.Duration
	userAgent string
}

// NewStatic creates a StaticSource. A nil client gets a keep-alive
// transport tuned for repeated fetches against one host.
func NewStatic(spec models.PageSpec, client *http.Client, limiter ratelimit.Limiter, timeout time.Duration, userAgent string) *StaticSource {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		}
	}
	return &StaticSource{
		spec:      spec,
		client:    client,
		limiter:   limiter,
		retryCfg:  retry.DefaultConfig(),
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Name returns the name of this source
func (s *StaticSource) Name() string { return "StaticSource" }

// Open is a no-op; static sources hold no session state
func (s *StaticSource) Open(ctx context.Context) error { return nil }

// Content fetches and parses the page addressed by the template and index.
// Transport failures and non-2xx statuses surface as a FetchError after the
// retry budget is spent.
func (s *StaticSource) Content(ctx context.Context, page int) (*goquery.Document, error) {
	pageURL := s.spec.PageURL(page)

	log.Debug().
		Str("url", pageURL).
		Int("page", page).
		Str("source", s.Name()).
		Msg("Fetching page")

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, pageURL); err != nil {
			return nil, &FetchError{Page: page, URL: pageURL, Err: err}
		}
	}

	start := time.Now()
	var doc *goquery.Document
	err := retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		doc, ferr = s.fetchOnce(ctx, pageURL)
		return ferr
	})
	if err != nil {
		var httpErr retry.HTTPError
		status := 0
		if errors.As(err, &httpErr) {
			status = httpErr.StatusCode
		}
		return nil, &FetchError{Page: page, URL: pageURL, Status: status, Err: err}
	}

	log.Debug().
		Str("url", pageURL).
		Int("page", page).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetch completed")

	return doc, nil
}

func (s *StaticSource) fetchOnce(ctx context.Context, pageURL string) (*goquery.Document, error) {
	reqCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, retry.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Advance is a no-op for static sources; the next Content call addresses
// the next page directly
func (s *StaticSource) Advance(ctx context.Context, page int) error { return nil }

// Close releases idle connections
func (s *StaticSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
