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
		MaxRetries:  3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
		JitterRatio: 0,
	}
}

func TestDoSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "profile", nil
	})
	if err != nil || result != "profile" || calls != 1 {
		t.Errorf("Do = %q, %v after %d calls", result, err, calls)
	}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	var attempts []int
	result, err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (int, error) {
		attempts = append(attempts, attempt)
		if attempt < 2 {
			return 0, Retryable(errors.New("503"))
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Fatalf("Do = %d, %v", result, err)
	}
	if len(attempts) != 3 || attempts[2] != 2 {
		t.Errorf("attempts = %v", attempts)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("404")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestDoReturnsUnwrappedErrorWhenExhausted(t *testing.T) {
	transient := errors.New("bad gateway")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, Retryable(transient)
	})
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if err != transient {
		t.Errorf("err = %v, want the unwrapped error", err)
	}
	if IsRetryable(err) {
		t.Error("final error still marked retryable")
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour

	_, err := Do(ctx, cfg, func(ctx context.Context, attempt int) (int, error) {
		cancel()
		return 0, Retryable(errors.New("again"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNoneDoesNotRetry(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), None(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, Retryable(errors.New("x"))
	})
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 300 * time.Millisecond},
		{5, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := cfg.calculateDelay(tt.attempt); got != tt.want {
			t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{
		http.StatusOK:                  false,
		http.StatusNotFound:            false,
		http.StatusUnprocessableEntity: false,
		http.StatusInternalServerError: false,
		http.StatusTooManyRequests:     true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	} {
		if got := RetryableStatus(code); got != want {
			t.Errorf("RetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}
