package ratelimit

import (
	"io"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"dispatch-console/internal/logx"
)

// KeyFunc derives the limiter key from a request.
type KeyFunc func(*http.Request) string

// Middleware limits request rate per key.
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter
	limiter Limiter
	keyFn   KeyFunc
}

// New creates a Middleware keyed by client IP.
func New(logger logx.Logger, counter prometheus.Counter, limiter Limiter) *Middleware {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
		keyFn:   ClientIP,
	}
}

// WithKeyFunc replaces the key derivation, e.g. to key by caller identity
// rather than address.
func (m *Middleware) WithKeyFunc(fn KeyFunc) *Middleware {
	if fn != nil {
		m.keyFn = fn
	}
	return m
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.keyFn(r)

			if !m.limiter.Allow(key) {
				if m.counter != nil {
					m.counter.Inc()
				}
				m.logger.Warn("rate limit exceeded",
					logx.String("key", key),
					logx.String("method", r.Method),
					logx.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				if _, err := io.WriteString(w, `{"error":"too many requests"}`); err != nil {
					// client may have hung up already
					m.logger.Debug("rate limit response write failed",
						logx.String("key", key),
						logx.Any("err", err),
					)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP derives the limiter key from the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
