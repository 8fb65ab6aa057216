package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/models"
	"github.com/storesmith/storefront/internal/services"
)

// mockSessionService implements SessionServiceInterface for testing
type mockSessionService struct {
	RegisterFunc           func(ctx context.Context, email, username, password string) (*services.UserResponse, error)
	ResendVerificationFunc func(ctx context.Context, email string) error
	VerifyEmailFunc        func(ctx context.Context, rawToken string) error
	LoginFunc              func(ctx context.Context, identifier, password string) (*services.LoginResponse, error)
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, rawToken, newPassword string) error
	RefreshFunc            func(ctx context.Context, presented string) (string, error)
	LogoutFunc             func(ctx context.Context, presented string) error
}

func (m *mockSessionService) Register(ctx context.Context, email, username, password string) (*services.UserResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, username, password)
	}
	return &services.UserResponse{ID: "user123", Username: username, Role: models.RoleUser}, nil
}

func (m *mockSessionService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *mockSessionService) VerifyEmail(ctx context.Context, rawToken string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, rawToken)
	}
	return nil
}

func (m *mockSessionService) Login(ctx context.Context, identifier, password string) (*services.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identifier, password)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *mockSessionService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *mockSessionService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, rawToken, newPassword)
	}
	return nil
}

func (m *mockSessionService) Refresh(ctx context.Context, presented string) (string, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, presented)
	}
	return "", models.ErrForbidden
}

func (m *mockSessionService) Logout(ctx context.Context, presented string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, presented)
	}
	return nil
}

func newTestAuthHandler(service SessionServiceInterface) *AuthHandler {
	return NewAuthHandler(service, auth.NewCookieConfig("test", 24*time.Hour))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ============================================================================
// Register
// ============================================================================

func TestAuthHandler_Register_Success(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.Register(rec, jsonRequest(http.MethodPost, "/auth/register",
		`{"email":"user@example.com","username":"johndoe","password":"SecurePassword123"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "user")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	service := &mockSessionService{
		RegisterFunc: func(ctx context.Context, email, username, password string) (*services.UserResponse, error) {
			return nil, models.ErrConflict
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Register(rec, jsonRequest(http.MethodPost, "/auth/register",
		`{"email":"user@example.com","username":"johndoe","password":"SecurePassword123"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	cases := []string{
		`not json`,
		`{"email":"not-an-email","username":"johndoe","password":"SecurePassword123"}`,
		`{"email":"user@example.com","username":"ab","password":"SecurePassword123"}`,
		`{"email":"user@example.com","username":"johndoe"}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		handler.Register(rec, jsonRequest(http.MethodPost, "/auth/register", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

// ============================================================================
// VerifyEmail
// ============================================================================

func TestAuthHandler_VerifyEmail_Success(t *testing.T) {
	var gotToken string
	service := &mockSessionService{
		VerifyEmailFunc: func(ctx context.Context, rawToken string) error {
			gotToken = rawToken
			return nil
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.VerifyEmail(rec, httptest.NewRequest(http.MethodGet, "/auth/verify-email?token=abc123", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", gotToken)
}

func TestAuthHandler_VerifyEmail_InvalidToken(t *testing.T) {
	service := &mockSessionService{
		VerifyEmailFunc: func(ctx context.Context, rawToken string) error {
			return models.ErrInvalidOrExpired
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.VerifyEmail(rec, httptest.NewRequest(http.MethodGet, "/auth/verify-email?token=stale", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_VerifyEmail_MissingToken(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.VerifyEmail(rec, httptest.NewRequest(http.MethodGet, "/auth/verify-email", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Login
// ============================================================================

func TestAuthHandler_Login_Success(t *testing.T) {
	service := &mockSessionService{
		LoginFunc: func(ctx context.Context, identifier, password string) (*services.LoginResponse, error) {
			return &services.LoginResponse{
				AccessToken:  "the-access-token",
				RefreshToken: "the-refresh-token",
				User:         &services.UserResponse{ID: "user123", Username: "johndoe", Role: models.RoleUser},
			}, nil
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(http.MethodPost, "/auth/login",
		`{"identifier":"johndoe","password":"SecurePassword123"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "the-access-token")
	assert.NotContains(t, rec.Body.String(), "the-refresh-token",
		"the refresh token must never appear in the response body")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refresh_token", cookies[0].Name)
	assert.Equal(t, "the-refresh-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(http.MethodPost, "/auth/login",
		`{"identifier":"johndoe","password":"WrongPassword"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandler_Login_NotVerified(t *testing.T) {
	service := &mockSessionService{
		LoginFunc: func(ctx context.Context, identifier, password string) (*services.LoginResponse, error) {
			return nil, models.ErrNotVerified
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(http.MethodPost, "/auth/login",
		`{"identifier":"johndoe","password":"SecurePassword123"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthHandler_Login_Disabled(t *testing.T) {
	service := &mockSessionService{
		LoginFunc: func(ctx context.Context, identifier, password string) (*services.LoginResponse, error) {
			return nil, models.ErrAccountDisabled
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(http.MethodPost, "/auth/login",
		`{"identifier":"johndoe","password":"SecurePassword123"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ============================================================================
// ForgotPassword / ResendVerification
// ============================================================================

func TestAuthHandler_ForgotPassword_AlwaysAccepted(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.ForgotPassword(rec, jsonRequest(http.MethodPost, "/auth/forgot-password",
		`{"email":"ghost@example.com"}`))

	assert.Equal(t, http.StatusAccepted, rec.Code,
		"the response must not reveal whether the account exists")
}

func TestAuthHandler_ResendVerification_AlwaysAccepted(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.ResendVerification(rec, jsonRequest(http.MethodPost, "/auth/resend-verification",
		`{"email":"ghost@example.com"}`))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

// ============================================================================
// ResetPassword
// ============================================================================

func TestAuthHandler_ResetPassword_Success(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.ResetPassword(rec, jsonRequest(http.MethodPost, "/auth/reset-password",
		`{"token":"abc123","new_password":"BrandNewPassword456"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_ResetPassword_InvalidToken(t *testing.T) {
	service := &mockSessionService{
		ResetPasswordFunc: func(ctx context.Context, rawToken, newPassword string) error {
			return models.ErrInvalidOrExpired
		},
	}
	handler := newTestAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.ResetPassword(rec, jsonRequest(http.MethodPost, "/auth/reset-password",
		`{"token":"stale","new_password":"BrandNewPassword456"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Refresh
// ============================================================================

func TestAuthHandler_Refresh_Success(t *testing.T) {
	service := &mockSessionService{
		RefreshFunc: func(ctx context.Context, presented string) (string, error) {
			assert.Equal(t, "the-refresh-token", presented)
			return "new-access-token", nil
		},
	}
	handler := newTestAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "the-refresh-token"})
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new-access-token")
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Refresh_RejectedToken(t *testing.T) {
	service := &mockSessionService{
		RefreshFunc: func(ctx context.Context, presented string) (string, error) {
			return "", models.ErrForbidden
		},
	}
	handler := newTestAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "replayed-token"})
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ============================================================================
// Logout
// ============================================================================

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	service := &mockSessionService{
		LogoutFunc: func(ctx context.Context, presented string) error {
			assert.Equal(t, "the-refresh-token", presented)
			return nil
		},
	}
	handler := newTestAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "the-refresh-token"})
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthHandler_Logout_NoCookieStillSucceeds(t *testing.T) {
	handler := newTestAuthHandler(&mockSessionService{})

	rec := httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
