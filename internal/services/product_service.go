package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/storesmith/storefront/internal/models"
)

// ProductRepository is the catalog store contract.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, category string, limit, offset int) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error)
}

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"image_url"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ProductInput is the write shape for create and update.
type ProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Category    string
	Brand       string
	Stock       int
	ImageURL    string
}

// ProductService handles catalog operations. Reads are public; writes are
// admin only, enforced at the route.
type ProductService struct {
	repo   ProductRepository
	logger *slog.Logger
}

func NewProductService(repo ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

func (s *ProductService) Get(ctx context.Context, id string) (*ProductResponse, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get product", slog.String("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return productToResponse(product), nil
}

func (s *ProductService) List(ctx context.Context, category string, limit, offset int) ([]*ProductResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.List(ctx, strings.TrimSpace(category), limit, offset)
	if err != nil {
		s.logger.Error("failed to list products", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, productToResponse(p))
	}
	return responses, nil
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (*ProductResponse, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.repo.Create(ctx, &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Category:    strings.TrimSpace(input.Category),
		Brand:       strings.TrimSpace(input.Brand),
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		s.logger.Error("failed to create product", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("product created", slog.String("product_id", product.ID))
	return productToResponse(product), nil
}

func (s *ProductService) Update(ctx context.Context, id string, input ProductInput) (*ProductResponse, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.repo.Update(ctx, id, &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Category:    strings.TrimSpace(input.Category),
		Brand:       strings.TrimSpace(input.Brand),
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update product", slog.String("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return productToResponse(product), nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete product", slog.String("product_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("product deleted", slog.String("product_id", id))
	return nil
}

// AdjustStock applies a relative stock change. ErrConflict means the
// adjustment would drive stock negative.
func (s *ProductService) AdjustStock(ctx context.Context, id string, delta int) (*ProductResponse, error) {
	if delta == 0 {
		return s.Get(ctx, id)
	}

	product, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to adjust stock", slog.String("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return productToResponse(product), nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return models.ErrBadRequest
	}
	if input.PriceCents < 0 || input.Stock < 0 {
		return models.ErrBadRequest
	}
	return nil
}

func productToResponse(p *models.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Category:    p.Category,
		Brand:       p.Brand,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
