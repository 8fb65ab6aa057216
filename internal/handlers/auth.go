package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/models"
	"github.com/storesmith/storefront/internal/services"
	pkgauth "github.com/storesmith/storefront/pkg/auth"
	pkghttp "github.com/storesmith/storefront/pkg/http"
)

// SessionServiceInterface is the session lifecycle contract consumed by the
// auth handler.
type SessionServiceInterface interface {
	Register(ctx context.Context, email, username, password string) (*services.UserResponse, error)
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, rawToken string) error
	Login(ctx context.Context, identifier, password string) (*services.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	Refresh(ctx context.Context, presented string) (string, error)
	Logout(ctx context.Context, presented string) error
}

// AuthHandler handles the /auth endpoints. The refresh token is transported
// exclusively via an HttpOnly cookie; only the access token appears in
// response bodies.
type AuthHandler struct {
	service      SessionServiceInterface
	cookieConfig auth.CookieConfig
}

func NewAuthHandler(service SessionServiceInterface, cookieConfig auth.CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookieConfig: cookieConfig}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		var pwErr *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email or username already in use")
		case errors.Is(err, models.ErrBadRequest), errors.As(err, &pwErr):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created. Check your email to verify your address.",
		"user":    user,
	})
}

// ResendVerification handles POST /auth/resend-verification. Always 202;
// the response never reveals whether the account exists.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.service.ResendVerification(r.Context(), req.Email)

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists with this email, a verification email will be sent.",
	})
}

// VerifyEmail handles GET /auth/verify-email?token=.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkghttp.WriteBadRequest(w, "Missing verification token")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, models.ErrInvalidOrExpired) {
			pkghttp.WriteBadRequest(w, "Invalid or expired verification token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully. You can now log in.",
	})
}

// Login handles POST /auth/login. On success the refresh token is set as an
// HttpOnly cookie and the access token returned in the body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		case errors.Is(err, models.ErrNotVerified):
			pkghttp.WriteForbidden(w, "Email address not verified")
		case errors.Is(err, models.ErrAccountDisabled):
			pkghttp.WriteForbidden(w, "Account is disabled")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetRefreshTokenCookie(w, resp.RefreshToken, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ForgotPassword handles POST /auth/forgot-password. Always 202.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.service.ForgotPassword(r.Context(), req.Email)

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists with this email, a reset email will be sent.",
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		var pwErr *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrInvalidOrExpired):
			pkghttp.WriteBadRequest(w, "Invalid or expired reset token")
		case errors.As(err, &pwErr):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully. You can now log in.",
	})
}

// Refresh handles POST /auth/refresh, reading the refresh token from its
// HttpOnly cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := auth.GetRefreshTokenCookie(r)
	if presented == "" {
		pkghttp.WriteUnauthorized(w, "Missing refresh token")
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Authentication required")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Invalid refresh token")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// Logout handles POST /auth/logout. Always succeeds and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	presented := auth.GetRefreshTokenCookie(r)

	if err := h.service.Logout(r.Context(), presented); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}
