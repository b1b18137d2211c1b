package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// UpstreamError is a non-2xx response from an external service. Carrying
// the status and body lets the retry loop log them on every attempt.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// Do runs fn up to retries+1 times, sleeping baseDelay*2^i after failed
// attempt i. The first success returns immediately; the final failure is
// propagated unchanged. Every failed attempt is logged.
func Do[T any](ctx context.Context, logger zerolog.Logger, op string, retries int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}

		evt := logger.Warn().
			Str("op", op).
			Int("attempt", attempt+1).
			Int("max_attempts", retries+1).
			Err(err)
		var ue *UpstreamError
		if errors.As(err, &ue) {
			evt = evt.Int("upstream_status", ue.Status).Str("upstream_body", ue.Body)
		}
		evt.Msg("attempt failed")

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(baseDelay << attempt):
		}
	}
	return zero, err
}
