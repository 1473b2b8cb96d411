package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bizlink/walletd/internal/apperrors"
)

// defaultMaxAttempts bounds transparent retries of ledger units of work that
// the datastore aborted with a deadlock or serialization failure. Business
// rule failures are never retried.
const defaultMaxAttempts = 3

// runWithRetry executes fn, retrying with exponential backoff while the
// error is the transient-conflict kind. The last error is returned once the
// attempt budget is exhausted, so callers can surface it as transient.
func runWithRetry[T any](ctx context.Context, logger *slog.Logger, attempts int, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := 0; i < attempts; i++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, apperrors.ErrTransientConflict) {
			return zero, err
		}
		lastErr = err
		logger.Warn("Retrying after transient datastore conflict",
			slog.String("operation", op),
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(1<<i) * 25 * time.Millisecond):
		}
	}
	return zero, lastErr
}
