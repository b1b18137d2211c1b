package retry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type lockedBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestDoReturnsAfterEventualSuccess(t *testing.T) {
	var buf lockedBuffer
	logger := zerolog.New(&buf)

	attempts := 0
	v, err := Do(context.Background(), logger, "flaky", 3, time.Millisecond, func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Fatalf("unexpected value: %s", v)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if n := strings.Count(buf.String(), "attempt failed"); n != 2 {
		t.Fatalf("expected 2 failed-attempt logs, got %d", n)
	}
}

func TestDoPropagatesFinalFailure(t *testing.T) {
	wantErr := errors.New("still broken")
	attempts := 0
	_, err := Do(context.Background(), zerolog.Nop(), "broken", 1, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		return 0, wantErr
	})
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected underlying error to be propagated, got %v", err)
	}
}

func TestDoDoesNotRetryOnSuccess(t *testing.T) {
	attempts := 0
	v, err := Do(context.Background(), zerolog.Nop(), "steady", 5, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("unexpected result: %d, %v", v, err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestDoLogsUpstreamBody(t *testing.T) {
	var buf lockedBuffer
	logger := zerolog.New(&buf)

	_, err := Do(context.Background(), logger, "upstream", 0, time.Millisecond, func(context.Context) (int, error) {
		return 0, &UpstreamError{Status: 502, Body: "gateway blew up"}
	})
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !strings.Contains(buf.String(), "gateway blew up") {
		t.Fatalf("expected response body in log, got %s", buf.String())
	}
}
