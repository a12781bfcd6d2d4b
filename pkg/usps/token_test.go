package usps

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTokenSourceCachesUntilSafetyMargin(t *testing.T) {
	var calls atomic.Int64
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(http.StatusOK, `{"access_token":"tok-a","expires_in":3600}`), nil
	})

	current := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(d)
	}

	source := NewTokenSource("http://usps.test", "id", "secret", &http.Client{Transport: rt}, now)

	for i := 0; i < 3; i++ {
		token, err := source.Token(context.Background())
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if token != "tok-a" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single token fetch, got %d", calls.Load())
	}

	// 56 minutes in: within the 5-minute safety margin of the 60-minute expiry.
	advance(56 * time.Minute)
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("token after expiry window: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected a refresh inside the safety margin, got %d calls", calls.Load())
	}
}

func TestTokenSourceConcurrentCallersSingleFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		<-release
		return jsonResponse(http.StatusOK, `{"access_token":"tok-b","expires_in":3600}`), nil
	})

	source := NewTokenSource("http://usps.test", "id", "secret", &http.Client{Transport: rt}, nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := source.Token(context.Background())
			errs <- err
		}()
	}

	// Give the goroutines a moment to pile up behind the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("token: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected deduplicated token fetch, got %d", calls.Load())
	}
}

func TestTokenSourceRefreshSurvivesCancelledCaller(t *testing.T) {
	var calls atomic.Int64
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		if err := req.Context().Err(); err != nil {
			return nil, err
		}
		return jsonResponse(http.StatusOK, `{"access_token":"tok-c","expires_in":3600}`), nil
	})

	source := NewTokenSource("http://usps.test", "id", "secret", &http.Client{Transport: rt}, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	token, err := source.Token(cancelled)
	if err != nil {
		t.Fatalf("token with cancelled caller context: %v", err)
	}
	if token != "tok-c" {
		t.Fatalf("unexpected token %q", token)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one token fetch, got %d", calls.Load())
	}

	// The fetched token is cached for followers.
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("token after refresh: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached token reuse, got %d calls", calls.Load())
	}
}

func TestTokenSourceRejectsMissingToken(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"token_type":"Bearer","expires_in":3600}`), nil
	})

	source := NewTokenSource("http://usps.test", "id", "secret", &http.Client{Transport: rt}, nil)
	if _, err := source.Token(context.Background()); err == nil {
		t.Fatal("expected error for missing access_token")
	}
}
