package repository

import (
	"context"

	"github.com/medisupply/inventory/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence.
// Create re-validates the product and enforces SKU uniqueness atomically;
// a duplicate SKU surfaces as a ValidationError, not an infrastructure error.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	GetByID(ctx context.Context, id int64) (domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (domain.Product, error)
	Count(ctx context.Context) (int64, error)
}

// ImportJobRepository defines the interface for import job tracking.
// Finalize and MarkFailed are conditional transitions: they apply only while
// the job is still Pending and report whether the transition happened.
type ImportJobRepository interface {
	Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error)
	Finalize(ctx context.Context, id uuid.UUID, result string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, result string) (bool, error)
}
