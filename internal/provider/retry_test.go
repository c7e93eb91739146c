package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/parleylabs/parley/internal/domain"
)

// fakeResult scripts one StreamChat attempt.
type fakeResult struct {
	deltas []string
	text   string
	err    error
}

type fakeProvider struct {
	calls   int
	results []fakeResult
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) StreamChat(_ context.Context, _ []domain.ChatMessage, _ StreamOptions, onDelta func(string)) (string, error) {
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	for _, d := range r.deltas {
		if onDelta != nil {
			onDelta(d)
		}
	}
	return r.text, r.err
}

func rateLimitErr() *APIError {
	return &APIError{StatusCode: 429, ErrorType: "rate_limit_error", Message: "slow down", RetryAfterMs: 1}
}

func TestStreamWithRetry_succeedsFirstTry(t *testing.T) {
	f := &fakeProvider{results: []fakeResult{
		{deltas: []string{"hi"}, text: "hi"},
	}}
	text, err := StreamWithRetry(context.Background(), f, testConversation(), StreamOptions{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hi" {
		t.Errorf("text = %q", text)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}

func TestStreamWithRetry_retriesRateLimit(t *testing.T) {
	f := &fakeProvider{results: []fakeResult{
		{err: rateLimitErr()},
		{err: rateLimitErr()},
		{deltas: []string{"ok"}, text: "ok"},
	}}
	var retryMsgs []string
	text, err := StreamWithRetry(context.Background(), f, testConversation(), StreamOptions{}, nil, func(msg string) {
		retryMsgs = append(retryMsgs, msg)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q", text)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
	if len(retryMsgs) != 2 {
		t.Fatalf("retry messages = %v, want 2", retryMsgs)
	}
	if !strings.Contains(retryMsgs[0], "Rate limited") {
		t.Errorf("retryMsgs[0] = %q", retryMsgs[0])
	}
	if !strings.Contains(retryMsgs[0], "attempt 1/5") {
		t.Errorf("retryMsgs[0] = %q", retryMsgs[0])
	}
}

func TestStreamWithRetry_nonRetryableFails(t *testing.T) {
	authErr := &APIError{StatusCode: 401, ErrorType: "authentication_error", Message: "bad key"}
	f := &fakeProvider{results: []fakeResult{
		{err: authErr},
	}}
	_, err := StreamWithRetry(context.Background(), f, testConversation(), StreamOptions{}, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Errorf("err = %v", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on auth error)", f.calls)
	}
}

func TestStreamWithRetry_noRetryAfterDelta(t *testing.T) {
	// Once output has reached the caller, a retry would duplicate it.
	f := &fakeProvider{results: []fakeResult{
		{deltas: []string{"partial"}, text: "partial", err: rateLimitErr()},
		{text: "should never run"},
	}}
	var got []string
	text, err := StreamWithRetry(context.Background(), f, testConversation(), StreamOptions{}, func(d string) {
		got = append(got, d)
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
	if text != "partial" {
		t.Errorf("text = %q, want partial output returned", text)
	}
	if strings.Join(got, "") != "partial" {
		t.Errorf("deltas = %v", got)
	}
}

func TestStreamWithRetry_exhaustsAttempts(t *testing.T) {
	f := &fakeProvider{results: []fakeResult{
		{err: rateLimitErr()},
	}}
	_, err := StreamWithRetry(context.Background(), f, testConversation(), StreamOptions{}, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if f.calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", f.calls, maxRetries+1)
	}
}

func TestStreamWithRetry_cancelDuringWait(t *testing.T) {
	slowErr := &APIError{StatusCode: 429, ErrorType: "rate_limit_error", Message: "slow down", RetryAfterMs: 5000}
	f := &fakeProvider{results: []fakeResult{
		{err: slowErr},
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := StreamWithRetry(ctx, f, testConversation(), StreamOptions{}, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancel took %s, should abort the wait early", elapsed)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}

func TestIsStreamError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{io.ErrUnexpectedEOF, true},
		{fmt.Errorf("reading stream: %w", io.ErrUnexpectedEOF), true},
		{errors.New("read tcp 1.2.3.4: connection reset by peer"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("http: HTTP/1.x transport connection broken"), true},
		{errors.New("malformed chunked encoding"), true},
		{errors.New("authentication failed"), false},
		{errors.New("invalid model"), false},
	}
	for _, tt := range tests {
		if got := isStreamError(tt.err); got != tt.want {
			t.Errorf("isStreamError(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestJitter(t *testing.T) {
	base := 2 * time.Second
	for i := 0; i < 50; i++ {
		got := jitter(base)
		if got < base || got > base+base/4+time.Nanosecond {
			t.Fatalf("jitter(%s) = %s, want within [%s, %s]", base, got, base, base+base/4)
		}
	}
}
