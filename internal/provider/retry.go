package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/parleylabs/parley/internal/domain"
)

const (
	maxRetries       = 5
	retryInitialWait = 2 * time.Second
	retryMaxWait     = 30 * time.Second
	retryMultiplier  = 2
)

// StreamWithRetry wraps StreamChat with exponential backoff for retryable
// errors (rate limits, overloads, dropped connections). Retries happen only
// while no delta has been emitted; once partial output has reached the
// caller a retry would duplicate it, so the error is returned as-is.
// onRetry, if non-nil, receives a user-facing message before each wait.
func StreamWithRetry(
	ctx context.Context,
	p Provider,
	messages []domain.ChatMessage,
	opts StreamOptions,
	onDelta func(string),
	onRetry func(string),
) (string, error) {
	wait := retryInitialWait

	for attempt := 0; attempt <= maxRetries; attempt++ {
		streamed := false
		wrapped := func(delta string) {
			streamed = true
			if onDelta != nil {
				onDelta(delta)
			}
		}

		text, err := p.StreamChat(ctx, messages, opts, wrapped)
		if err == nil {
			return text, nil
		}
		if streamed || attempt >= maxRetries || ctx.Err() != nil {
			return text, err
		}

		// Determine if the error is retryable and how long to wait.
		retryWait := jitter(wait)
		msg := ""
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsRetryable() {
			// Prefer the server's Retry-After; it knows when capacity
			// returns, so it isn't capped or jittered.
			if apiErr.RetryAfterMs > 0 {
				retryWait = time.Duration(apiErr.RetryAfterMs) * time.Millisecond
			} else if retryWait > retryMaxWait {
				retryWait = retryMaxWait
			}
			label := "Rate limited"
			switch {
			case apiErr.ErrorType == "overloaded_error":
				label = "API overloaded"
			case apiErr.StatusCode == 503:
				label = "Service unavailable"
			case apiErr.StatusCode >= 500:
				label = "Server error"
			}
			msg = fmt.Sprintf("%s — retrying in %s (attempt %d/%d)", label, retryWait.Round(time.Millisecond), attempt+1, maxRetries)
		} else if isStreamError(err) {
			// Stream dropped before any output. Flush stale pooled
			// connections so the next attempt gets a fresh TCP/TLS
			// connection; Go's Transport only auto-retries stale
			// connections for idempotent methods, not POST.
			CloseIdleConnections()
			if retryWait > retryMaxWait {
				retryWait = retryMaxWait
			}
			msg = fmt.Sprintf("Connection lost — retrying in %s (attempt %d/%d)", retryWait.Round(time.Millisecond), attempt+1, maxRetries)
		} else {
			// Non-retryable (auth, invalid request, etc.)
			return text, err
		}

		if onRetry != nil {
			onRetry(msg)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryWait):
		}

		wait *= retryMultiplier
		if wait > retryMaxWait {
			wait = retryMaxWait
		}
	}

	return "", fmt.Errorf("max retries exceeded")
}

// jitter spreads a backoff wait by up to 25% so synchronized clients don't
// retry in lockstep.
func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

// isStreamError returns true for transient stream/connection errors that are
// worth retrying (e.g., connection dropped mid-response).
func isStreamError(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected EOF") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "HTTP/1.x transport connection broken") ||
		strings.Contains(msg, "malformed chunked encoding") ||
		strings.Contains(msg, "invalid byte in chunk length") ||
		strings.Contains(msg, "reading stream:")
}
