package pagesource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/page-harvest/harvest/pkg/models"
)

// InteractiveSource drives one long-lived headless-Chrome session. Pages are
// reached by clicking the navigation control, not by URL, so iteration is
// strictly sequential: Content reads current session state and Advance is
// the only way to move forward.
type InteractiveSource struct {
	spec models.PageSpec
	// readySelector is the readiness condition: at least one extractable
	// row-element must be visible before a page is considered loaded
	readySelector string
	navTimeout    time.Duration
	headless      bool
	userAgent     string
	chromePath    string

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	browserCtx    context.Context
}

// NewInteractive creates an InteractiveSource. The session is not started
// until Open is called.
func NewInteractive(spec models.PageSpec, readySelector string, navTimeout time.Duration, headless bool, userAgent, chromePath string) *InteractiveSource {
	return &InteractiveSource{
		spec:          spec,
		readySelector: readySelector,
		navTimeout:    navTimeout,
		headless:      headless,
		userAgent:     userAgent,
		chromePath:    chromePath,
	}
}

// Name returns the name of this source
func (s *InteractiveSource) Name() string { return "InteractiveSource" }

// Open starts the browser, navigates to the entry point, and blocks until
// the readiness condition holds or the nav timeout elapses
func (s *InteractiveSource) Open(ctx context.Context) error {
	start := time.Now()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(s.userAgent),
	}
	if s.chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(s.chromePath)}, allocOpts...)
	}

	// The session outlives any single page operation, so it is rooted in
	// the background context; per-operation timeouts are applied per Run.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	s.allocCancel = allocCancel
	s.browserCancel = browserCancel
	s.browserCtx = browserCtx

	var entryStatus int64
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Response.URL == s.spec.Target {
				entryStatus = resp.Response.Status
			}
		}
	})

	openCtx, cancel := context.WithTimeout(browserCtx, s.navTimeout)
	defer cancel()

	log.Debug().
		Str("entry_point", s.spec.Target).
		Str("ready_selector", s.readySelector).
		Bool("headless", s.headless).
		Msg("Opening browser session")

	err := chromedp.Run(openCtx,
		network.Enable(),
		chromedp.Navigate(s.spec.Target),
		chromedp.WaitVisible(s.readySelector, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Stage: "readiness wait", Wait: s.navTimeout, Err: err}
		}
		return fmt.Errorf("failed to open session: %w", err)
	}

	log.Debug().
		Int64("status", entryStatus).
		Dur("elapsed", time.Since(start)).
		Msg("Session ready")
	return nil
}

// Content snapshots the session's current rendered state. The page index is
// advisory; the session is stateful and sequential.
func (s *InteractiveSource) Content(ctx context.Context, page int) (*goquery.Document, error) {
	if s.browserCtx == nil {
		return nil, fmt.Errorf("session not open")
	}

	runCtx, cancel := context.WithTimeout(s.browserCtx, s.navTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return nil, &FetchError{Page: page, URL: s.spec.Target, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{Page: page, URL: s.spec.Target, Err: err}
	}

	log.Debug().Int("page", page).Int("html_bytes", len(html)).Msg("Snapshotted session state")
	return doc, nil
}

// Advance clicks the navigation control once and waits for the next page's
// readiness condition. An absent control yields a NavigationError, the
// run's natural end-of-pagination signal.
func (s *InteractiveSource) Advance(ctx context.Context, page int) error {
	if s.browserCtx == nil {
		return fmt.Errorf("session not open")
	}

	runCtx, cancel := context.WithTimeout(s.browserCtx, s.navTimeout)
	defer cancel()

	// Probe for the control first so "last page reached" is distinguishable
	// from a slow click.
	var nodes []*cdp.Node
	err := chromedp.Run(runCtx, chromedp.Nodes(s.spec.NavSelector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Stage: "advance", Wait: s.navTimeout, Err: err}
		}
		return fmt.Errorf("failed to probe navigation control: %w", err)
	}
	if len(nodes) == 0 {
		return &NavigationError{Page: page, Selector: s.spec.NavSelector}
	}

	log.Debug().Int("page", page).Str("selector", s.spec.NavSelector).Msg("Advancing to next page")

	err = chromedp.Run(runCtx,
		chromedp.Click(s.spec.NavSelector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.WaitVisible(s.readySelector, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Stage: "advance", Wait: s.navTimeout, Err: err}
		}
		return &NavigationError{Page: page, Selector: s.spec.NavSelector}
	}
	return nil
}

// Close releases the browser session. Safe to call on every exit path,
// including after a failed Open.
func (s *InteractiveSource) Close() error {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.browserCtx = nil
	return nil
}
