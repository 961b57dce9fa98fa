package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:          3,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           5 * time.Millisecond,
		Multiplier:           2.0,
		RetryableStatusCodes: []int{http.StatusInternalServerError, http.StatusTooManyRequests},
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_RecoversAfterRetryableError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return HTTPError{StatusCode: 500, Status: "500 Internal Server Error"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryableStatusStopsImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return HTTPError{StatusCode: 404, Status: "404 Not Found"}
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("A 404 should not be retried, got %d calls", calls)
	}
	var httpErr HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Errorf("Expected the original HTTPError, got %v", err)
	}
}

func TestDo_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return HTTPError{StatusCode: 500, Status: "500 Internal Server Error"}
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts, got nil")
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		t.Errorf("Final error should wrap the last HTTPError, got %v", err)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig()
	cfg.InitialBackoff = time.Minute
	cfg.MaxBackoff = time.Minute

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- Do(ctx, cfg, func() error {
			calls++
			return HTTPError{StatusCode: 500, Status: "500 Internal Server Error"}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestBackoffGrows(t *testing.T) {
	cfg := fastConfig()
	first := backoffFor(0, cfg)
	second := backoffFor(1, cfg)
	if second <= first {
		t.Errorf("Backoff should grow: %v then %v", first, second)
	}
	huge := backoffFor(20, cfg)
	if huge > cfg.MaxBackoff {
		t.Errorf("Backoff %v exceeds cap %v", huge, cfg.MaxBackoff)
	}
}
