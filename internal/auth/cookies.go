package auth

import (
	"net/http"
	"time"
)

const refreshCookieName = "refresh_token"

// CookieConfig controls refresh token cookie attributes. Production uses
// Secure + SameSite=None for cross-origin frontends; everything else gets
// Lax without Secure so local development works over plain HTTP.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// NewCookieConfig derives cookie settings from the environment name.
func NewCookieConfig(env string, maxAge time.Duration) CookieConfig {
	if env == "production" {
		return CookieConfig{Secure: true, SameSite: http.SameSiteNoneMode, MaxAge: maxAge}
	}
	return CookieConfig{Secure: false, SameSite: http.SameSiteLaxMode, MaxAge: maxAge}
}

// SetRefreshTokenCookie stores the refresh token in an HttpOnly cookie so
// it is never readable from script.
func SetRefreshTokenCookie(w http.ResponseWriter, refreshToken string, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		Expires:  time.Now().Add(config.MaxAge),
		MaxAge:   int(config.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: config.SameSite,
	})
}

// ClearRefreshTokenCookie deletes the refresh token cookie.
func ClearRefreshTokenCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: config.SameSite,
	})
}

// GetRefreshTokenCookie reads the refresh token from the request cookies.
// Returns an empty string when the cookie is absent.
func GetRefreshTokenCookie(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
