package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/storesmith/storefront/pkg/http"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestLimit int
	Window       time.Duration
}

// LoginRateLimit is the policy for the login endpoint: 5 attempts per
// 15 minutes per client IP.
func LoginRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestLimit: 5,
		Window:       15 * time.Minute,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestLimit,
		config.Window,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many attempts. Please try again later.")
		}),
	)
}
