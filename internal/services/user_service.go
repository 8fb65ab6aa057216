package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/storesmith/storefront/internal/models"
	pkglogger "github.com/storesmith/storefront/pkg/logger"
)

// ProfileResponse is the user detail projection. Credential and token state
// never appear here.
type ProfileResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// UserService handles profile and account administration. Self-or-admin
// rules are enforced here, against the identity the gate attached.
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{repo: repo, logger: logger, auditLogger: auditLogger}
}

// Get returns a user's profile. Only the user themselves or an admin may
// read it.
func (s *UserService) Get(ctx context.Context, actorID, actorRole, targetID string) (*ProfileResponse, error) {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", targetID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return profileToResponse(user), nil
}

// List returns a page of users. Admin only; the route enforces it, this is
// plain data access.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*ProfileResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*ProfileResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, profileToResponse(user))
	}
	return responses, nil
}

// UpdateProfile changes username/email. Restricted to self or admin.
// Changing either does not re-trigger verification in this design.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, actorRole, targetID, username, email string) (*ProfileResponse, error) {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.repo.UpdateProfile(ctx, targetID, username, email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to update profile", slog.String("user_id", targetID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("profile_updated", targetID, map[string]string{"actor_id": actorID})
	return profileToResponse(user), nil
}

// UpdateStatus changes role and active state. Admin only, and an admin
// cannot target themselves: no self-demotion, no self-deactivation.
func (s *UserService) UpdateStatus(ctx context.Context, actorID, targetID, role string, isActive bool) (*ProfileResponse, error) {
	if actorID == targetID {
		return nil, models.ErrForbidden
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.ErrBadRequest
	}

	user, err := s.repo.UpdateStatus(ctx, targetID, role, isActive)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user status", slog.String("user_id", targetID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("status_updated", targetID, map[string]string{
		"actor_id": actorID,
		"role":     role,
	})
	return profileToResponse(user), nil
}

// Delete removes an account. Restricted to self or admin.
func (s *UserService) Delete(ctx context.Context, actorID, actorRole, targetID string) error {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", targetID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("user_deleted", targetID, map[string]string{"actor_id": actorID})
	return nil
}

func profileToResponse(user *models.User) *ProfileResponse {
	return &ProfileResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
