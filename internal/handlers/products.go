package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storesmith/storefront/internal/models"
	"github.com/storesmith/storefront/internal/services"
	pkghttp "github.com/storesmith/storefront/pkg/http"
)

// ProductServiceInterface is the catalog contract consumed by the product
// handler.
type ProductServiceInterface interface {
	Get(ctx context.Context, id string) (*services.ProductResponse, error)
	List(ctx context.Context, category string, limit, offset int) ([]*services.ProductResponse, error)
	Create(ctx context.Context, input services.ProductInput) (*services.ProductResponse, error)
	Update(ctx context.Context, id string, input services.ProductInput) (*services.ProductResponse, error)
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (*services.ProductResponse, error)
}

type ProductHandler struct {
	service ProductServiceInterface
}

func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

type ProductRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required,max=100"`
	Brand       string `json:"brand" validate:"max=100"`
	Stock       int    `json:"stock" validate:"gte=0"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// List handles GET /products. Public.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 20)
	category := r.URL.Query().Get("category")

	products, err := h.service.List(r.Context(), category, limit, offset)
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get handles GET /products/{id}. Public.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, product)
}

// Create handles POST /products. Admin only, enforced at the route.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}. Admin only, enforced at the route.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}. Admin only, enforced at the route.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeProductError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock handles PATCH /products/{id}/stock. Admin only, enforced at
// the route. The adjustment is atomic and never drives stock negative.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	product, err := h.service.AdjustStock(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "Insufficient stock")
			return
		}
		h.writeProductError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return &req, true
}

func (req *ProductRequest) toInput() services.ProductInput {
	return services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    req.Category,
		Brand:       req.Brand,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
}

func (h *ProductHandler) writeProductError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Product not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Conflicting product state")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
