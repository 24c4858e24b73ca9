package ratelimit

// Limiter is a rate limiter keyed by caller.
type Limiter interface {
	Allow(key string) bool
}
