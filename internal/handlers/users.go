package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/models"
	"github.com/storesmith/storefront/internal/services"
	pkghttp "github.com/storesmith/storefront/pkg/http"
)

// UserServiceInterface is the account management contract consumed by the
// user handler.
type UserServiceInterface interface {
	Get(ctx context.Context, actorID, actorRole, targetID string) (*services.ProfileResponse, error)
	List(ctx context.Context, limit, offset int) ([]*services.ProfileResponse, error)
	UpdateProfile(ctx context.Context, actorID, actorRole, targetID, username, email string) (*services.ProfileResponse, error)
	UpdateStatus(ctx context.Context, actorID, targetID, role string, isActive bool) (*services.ProfileResponse, error)
	Delete(ctx context.Context, actorID, actorRole, targetID string) error
}

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
}

type UpdateStatusRequest struct {
	Role     string `json:"role" validate:"required,oneof=user admin"`
	IsActive *bool  `json:"is_active" validate:"required"`
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID, identity.Role, identity.UserID)
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// Get handles GET /users/{id}. Self or admin.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID, identity.Role, chi.URLParam(r, "id"))
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// List handles GET /users. Admin only, enforced at the route.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	profiles, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"users":  profiles,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateProfile handles PUT /users/{id}. Self or admin.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), identity.UserID, identity.Role, chi.URLParam(r, "id"), req.Username, req.Email)
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// UpdateStatus handles PATCH /users/{id}/status. Admin only, enforced at
// the route; the service additionally rejects self-targeting.
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.service.UpdateStatus(r.Context(), identity.UserID, chi.URLParam(r, "id"), req.Role, *req.IsActive)
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// Delete handles DELETE /users/{id}. Self or admin.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, identity.Role, chi.URLParam(r, "id")); err != nil {
		h.writeUserError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Email or username already in use")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func paginationParams(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
