package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy retries idempotent oracle reads with exponential backoff:
// BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Sleep is swapped in tests. Nil waits on a timer or ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds, returns a permanent error, or retries run out.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !retryable(err) || attempt == p.MaxRetries {
			break
		}
		delay := p.BaseDelay << attempt
		logger.Warn("oracle call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", p.MaxRetries+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if serr := p.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	logger.Error("oracle call failed", zap.String("op", op), zap.Error(err))
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
