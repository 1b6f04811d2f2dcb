package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/medisupply/inventory/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importJobRepository struct {
	pool *pgxpool.Pool
}

// NewImportJobRepository wires a repository backed by pgxpool.
func NewImportJobRepository(pool *pgxpool.Pool) ImportJobRepository {
	return &importJobRepository{pool: pool}
}

func (r *importJobRepository) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	if r.pool == nil {
		return domain.ImportJob{}, fmt.Errorf("import job repository not initialized")
	}

	if err := job.Validate(); err != nil {
		return domain.ImportJob{}, err
	}

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO import_jobs (id, file_key, submitter_id, status, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		job.ID,
		job.FileKey,
		job.SubmitterID,
		job.Status,
		job.Result,
		job.CreatedAt,
	).Scan(&job.CreatedAt)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}

	return job, nil
}

func (r *importJobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error) {
	if r.pool == nil {
		return domain.ImportJob{}, fmt.Errorf("import job repository not initialized")
	}

	var (
		job       domain.ImportJob
		result    pgtype.Text
		updatedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, file_key, submitter_id, status, result, created_at, updated_at
		 FROM import_jobs
		 WHERE id = $1`,
		id,
	).Scan(
		&job.ID,
		&job.FileKey,
		&job.SubmitterID,
		&job.Status,
		&result,
		&job.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImportJob{}, domain.NewNotFoundError("import job", id.String())
		}
		return domain.ImportJob{}, fmt.Errorf("failed to get import job: %w", err)
	}

	if result.Valid {
		job.Result = &result.String
	}
	if updatedAt.Valid {
		job.UpdatedAt = &updatedAt.Time
	}

	return job, nil
}

func (r *importJobRepository) Finalize(ctx context.Context, id uuid.UUID, result string) (bool, error) {
	return r.transition(ctx, id, domain.JobStatusFinalized, result)
}

func (r *importJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, result string) (bool, error) {
	return r.transition(ctx, id, domain.JobStatusFailed, result)
}

// transition applies a terminal state only while the job is still Pending, so
// duplicate deliveries and late compensating writes never reopen a job.
func (r *importJobRepository) transition(ctx context.Context, id uuid.UUID, status domain.JobStatus, result string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("import job repository not initialized")
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, result = $3, updated_at = now()
		 WHERE id = $1 AND status = $4`,
		id,
		status,
		result,
		domain.JobStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition import job to %s: %w", status, err)
	}

	return tag.RowsAffected() > 0, nil
}
