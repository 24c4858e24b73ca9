package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/gateway/identity"
	"dispatch-console/internal/logx"
)

type callerKey struct{}

// WithCaller returns a context carrying the resolved caller.
func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom extracts the resolved caller from the context.
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(domain.Caller)
	return c, ok
}

// Authenticator resolves the bearer token of each request into a caller
// identity and stores it in the request context.
type Authenticator struct {
	resolver identity.Resolver
	logger   logx.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(resolver identity.Resolver, logger logx.Logger) *Authenticator {
	return &Authenticator{resolver: resolver, logger: logger}
}

// Handler returns chi-style middleware.
func (a *Authenticator) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			caller, err := a.resolver.Resolve(r.Context(), token)
			if err != nil {
				status := http.StatusServiceUnavailable
				msg := `{"error":"identity unavailable"}`
				if errors.Is(err, apperr.ErrUnauthorized) {
					status = http.StatusUnauthorized
					msg = `{"error":"unauthorized"}`
				} else {
					a.logger.Error("identity resolution failed", logx.Err(err))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = io.WriteString(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
