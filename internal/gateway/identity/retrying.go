package identity

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"dispatch-console/internal/domain"
	"dispatch-console/internal/logx"
)

type counter interface {
	Inc()
}

// RetryConfig describes RetryingResolver behaviour.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingResolver wraps a Resolver with bounded exponential backoff on
// transient upstream failures. Rejections are never retried.
type RetryingResolver struct {
	next    Resolver
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingResolver wraps next with retry behaviour; returns nil when next is nil.
func NewRetryingResolver(next Resolver, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingResolver {
	if next == nil {
		return nil
	}
	return &RetryingResolver{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Resolve delegates to the wrapped resolver, retrying transient failures.
func (r *RetryingResolver) Resolve(ctx context.Context, token string) (domain.Caller, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		caller, err := r.next.Resolve(ctx, token)
		if err == nil {
			return caller, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(r.cfg.BaseDelay, r.cfg.MaxDelay, attempt)
		if r.retries != nil {
			r.retries.Inc()
		}
		r.logger.Warn("identity gateway retry",
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Any("err", err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return domain.Caller{}, lastErr
}

// isRetryable reports whether the failure is worth another attempt: upstream
// overload, upstream 5xx, or a network timeout.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// backoff computes the retry delay.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
