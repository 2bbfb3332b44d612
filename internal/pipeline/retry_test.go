package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), nil, 5, time.Microsecond, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("got %d attempts, want 3", attempts)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), nil, 2, time.Microsecond, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("permanent")
	})
	if err == nil {
		t.Fatalf("exhausted retries should surface the error")
	}
	if attempts != 3 {
		t.Fatalf("got %d attempts, want initial try plus 2 retries", attempts)
	}
}

func TestWithRetryLogsAttempts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	attempts := 0
	err := withRetry(context.Background(), logger, 5, time.Microsecond, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := logs.FilterMessage("fetch failed, retrying").Len(); got != 2 {
		t.Fatalf("got %d retry log entries, want 2", got)
	}
}

func TestWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, nil, 5, time.Minute, func(ctx context.Context) error {
		return fmt.Errorf("transient")
	})
	if err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
