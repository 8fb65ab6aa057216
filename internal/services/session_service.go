package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/models"
	pkgauth "github.com/storesmith/storefront/pkg/auth"
	pkglogger "github.com/storesmith/storefront/pkg/logger"
)

// UserRepository is the credential store contract shared by the session and
// user services.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id, presented string) (bool, error)
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, username, email string) (*models.User, error)
	UpdateStatus(ctx context.Context, id, role string, isActive bool) (*models.User, error)
}

// UserResponse is the safe projection returned by auth operations. It never
// carries credential state.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse carries the token pair alongside the user projection.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"-"` // transported via HttpOnly cookie, never the body
	User         *UserResponse `json:"user"`
}

// dummyHash is compared against when login hits an unknown identifier, so
// the not-found path costs roughly the same as a real password check.
var dummyHash, _ = pkgauth.HashPassword("storefront-timing-equalizer-1A")

// SessionService orchestrates the authentication lifecycle: registration,
// verification, login, refresh, logout and password reset. Anti-enumeration
// policy lives entirely at this boundary: operations that could reveal
// account existence report success regardless of match.
type SessionService struct {
	repo        UserRepository
	codec       *auth.TokenCodec
	verifyGen   *auth.EphemeralTokenGenerator
	resetGen    *auth.EphemeralTokenGenerator
	email       EmailSender
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewSessionService(
	repo UserRepository,
	codec *auth.TokenCodec,
	verifyGen, resetGen *auth.EphemeralTokenGenerator,
	email EmailSender,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *SessionService {
	return &SessionService{
		repo:        repo,
		codec:       codec,
		verifyGen:   verifyGen,
		resetGen:    resetGen,
		email:       email,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Register creates an unverified, active account and dispatches a
// verification email. Duplicate email or username is ErrConflict.
func (s *SessionService) Register(ctx context.Context, email, username, password string) (*UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" || username == "" {
		return nil, models.ErrBadRequest
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.verifyGen.Generate()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Username:                   username,
		Email:                      email,
		PasswordHash:               passwordHash,
		Role:                       models.RoleUser,
		IsVerified:                 false,
		IsActive:                   true,
		VerificationTokenHash:      &token.Hash,
		VerificationTokenExpiresAt: &token.ExpiresAt,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration rejected: identity already in use")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Dispatch is fire-and-forget; a delivery failure must not fail the
	// registration, the user can request a resend.
	if err := s.email.SendVerificationEmail(ctx, created.Email, token.Raw); err != nil {
		s.logger.Warn("failed to dispatch verification email",
			slog.String("user_id", created.ID),
			slog.Any("error", err))
	}

	s.logger.Info("user registered", slog.String("user_id", created.ID))
	s.auditLogger.LogAccountAction("user_registered", created.ID, nil)

	return userToResponse(created), nil
}

// ResendVerification regenerates and redispatches the verification token.
// It reports success whether or not the account exists or is already
// verified, so the endpoint cannot be used to probe for accounts.
func (s *SessionService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up user for resend", slog.Any("error", err))
		}
		return nil
	}
	if user.IsVerified {
		return nil
	}

	token, err := s.verifyGen.Generate()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return nil
	}

	// Overwrites any prior token pair; only the newest token is live.
	if err := s.repo.SetVerificationToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		s.logger.Error("failed to store verification token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil
	}

	if err := s.email.SendVerificationEmail(ctx, user.Email, token.Raw); err != nil {
		s.logger.Warn("failed to dispatch verification email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	return nil
}

// VerifyEmail consumes a raw verification token. Wrong, already-used and
// expired tokens are indistinguishable.
func (s *SessionService) VerifyEmail(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return models.ErrInvalidOrExpired
	}

	user, err := s.repo.ConsumeVerificationToken(ctx, auth.HashEphemeralToken(rawToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("verification token rejected")
			return models.ErrInvalidOrExpired
		}
		s.logger.Error("failed to consume verification token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("email_verified", user.ID, nil)

	return nil
}

// Login authenticates by email or username. Unknown identifier and wrong
// password collapse into ErrInvalidCredentials; the dummy compare keeps the
// two paths close in timing.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		_ = pkgauth.ComparePassword(dummyHash, password)
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = pkgauth.ComparePassword(dummyHash, password)
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrInvalidCredentials
	}

	if !user.IsVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "not_verified",
		})
		return nil, models.ErrNotVerified
	}

	if !user.IsActive {
		s.logger.Info("login blocked: account disabled", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_disabled",
		})
		return nil, models.ErrAccountDisabled
	}

	accessToken, err := s.codec.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("failed to issue refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Overwriting the stored token forcibly ends any prior session for
	// this user: single active session per user.
	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		s.logger.Error("failed to persist refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userToResponse(user),
	}, nil
}

// ForgotPassword dispatches a reset token. Silent no-op for unknown emails.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up user for password reset", slog.Any("error", err))
		}
		return nil
	}

	token, err := s.resetGen.Generate()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return nil
	}

	if err := s.repo.SetResetToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		s.logger.Error("failed to store reset token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, token.Raw); err != nil {
		s.logger.Warn("failed to dispatch reset email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	return nil
}

// ResetPassword consumes a raw reset token and replaces the password hash.
// Existing sessions are left intact; only the credentials change.
func (s *SessionService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return models.ErrInvalidOrExpired
	}
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user, err := s.repo.ConsumeResetToken(ctx, auth.HashEphemeralToken(rawToken), newHash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("reset token rejected")
			return models.ErrInvalidOrExpired
		}
		s.logger.Error("failed to consume reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("password_reset", user.ID, nil)

	return nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated. A presented token that verifies but
// does not match the stored one is treated as replayed or stolen and
// rejected; the stored token stays live until logout or expiry.
func (s *SessionService) Refresh(ctx context.Context, presented string) (string, error) {
	if strings.TrimSpace(presented) == "" {
		return "", models.ErrUnauthorized
	}

	claims, err := s.codec.VerifyRefreshToken(presented)
	if err != nil {
		s.logger.Info("refresh token failed verification")
		return "", models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("refresh rejected: user gone", slog.String("user_id", claims.UserID))
			return "", models.ErrUnauthorized
		}
		s.logger.Error("failed to load user for refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if !user.IsActive {
		s.logger.Info("refresh rejected: account disabled", slog.String("user_id", user.ID))
		return "", models.ErrUnauthorized
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		s.logger.Warn("refresh token reuse detected", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "refresh_reuse_detected",
			UserID:        user.ID,
			FailureReason: "token_mismatch",
		})
		return "", models.ErrForbidden
	}

	accessToken, err := s.codec.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return accessToken, nil
}

// Logout clears the stored refresh token when it matches the presented one.
// Everything else is a silent no-op: there is nothing useful to tell an
// unauthenticated caller about a token that no longer matches.
func (s *SessionService) Logout(ctx context.Context, presented string) error {
	if strings.TrimSpace(presented) == "" {
		return nil
	}

	claims, err := s.codec.VerifyRefreshToken(presented)
	if err != nil {
		return nil
	}

	cleared, err := s.repo.ClearRefreshToken(ctx, claims.UserID, presented)
	if err != nil {
		s.logger.Error("failed to clear refresh token", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if cleared {
		s.logger.Info("user logged out", slog.String("user_id", claims.UserID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "logout",
			UserID:    claims.UserID,
			Success:   true,
		})
	}

	return nil
}

func userToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}
