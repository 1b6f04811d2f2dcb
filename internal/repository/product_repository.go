package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/medisupply/inventory/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository wires a repository backed by pgxpool.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r.pool == nil {
		return domain.Product{}, fmt.Errorf("product repository not initialized")
	}

	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO products (sku, name, expiration_date, quantity, price, location,
		                       description, category, provider_id, photo_filename, photo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		product.SKU,
		product.Name,
		product.ExpirationDate,
		product.Quantity,
		product.Price,
		product.Location,
		product.Description,
		product.Category,
		product.ProviderID,
		product.PhotoFilename,
		product.PhotoURL,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.Product{}, domain.NewValidationErrorf("sku %s already exists", product.SKU)
		}
		return domain.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	return r.getByField(ctx, "id", id, strconv.FormatInt(id, 10))
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	return r.getByField(ctx, "sku", sku, sku)
}

func (r *productRepository) getByField(ctx context.Context, field string, value any, label string) (domain.Product, error) {
	if r.pool == nil {
		return domain.Product{}, fmt.Errorf("product repository not initialized")
	}

	var (
		product       domain.Product
		description   pgtype.Text
		photoFilename pgtype.Text
		photoURL      pgtype.Text
	)
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, sku, name, expiration_date, quantity, price, location,
		        description, category, provider_id, photo_filename, photo_url,
		        created_at, updated_at
		 FROM products
		 WHERE `+field+` = $1`,
		value,
	).Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.ExpirationDate,
		&product.Quantity,
		&product.Price,
		&product.Location,
		&description,
		&product.Category,
		&product.ProviderID,
		&photoFilename,
		&photoURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.NewNotFoundError("product", label)
		}
		return domain.Product{}, fmt.Errorf("failed to get product by %s: %w", field, err)
	}

	if description.Valid {
		product.Description = description.String
	}
	if photoFilename.Valid {
		product.PhotoFilename = &photoFilename.String
	}
	if photoURL.Valid {
		product.PhotoURL = &photoURL.String
	}

	return product, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("product repository not initialized")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
