package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storesmith/storefront/internal/database"
	"github.com/storesmith/storefront/internal/models"
)

const productColumns = `id, name, description, price_cents, category, brand, stock, image_url, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{pool: db.Pool}
}

func scanProductRow(scanner rowScanner) (*models.Product, error) {
	var p models.Product

	err := scanner.Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceCents,
		&p.Category, &p.Brand, &p.Stock, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProductRow(r.pool.QueryRow(ctx, query, id))
}

// List returns products ordered by creation time, optionally filtered by
// category.
func (r *ProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR category = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New().String()

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `
		INSERT INTO products (id, name, description, price_cents, category, brand, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + productColumns

	return scanProductRow(r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.PriceCents,
		product.Category, product.Brand, product.Stock, product.ImageURL,
		product.CreatedAt, product.UpdatedAt,
	))
}

func (r *ProductRepository) Update(ctx context.Context, id string, product *models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price_cents = $3, category = $4,
			brand = $5, image_url = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + productColumns

	return scanProductRow(r.pool.QueryRow(ctx, query,
		product.Name, product.Description, product.PriceCents,
		product.Category, product.Brand, product.ImageURL, id,
	))
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AdjustStock applies a relative stock change as a conditional update so
// concurrent adjustments never drive stock negative. Returns ErrConflict
// when the adjustment would.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING ` + productColumns

	product, err := scanProductRow(r.pool.QueryRow(ctx, query, id, delta))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Distinguish "no such product" from "insufficient stock".
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, models.ErrConflict
			}
		}
		return nil, err
	}

	return product, nil
}
