package importer

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/medisupply/inventory/internal/domain"
	"github.com/medisupply/inventory/internal/events"
	"github.com/medisupply/inventory/internal/repository"
	"github.com/medisupply/inventory/internal/storage"

	"github.com/google/uuid"
)

// requiredColumns must all be present in the file header; a missing column is
// a per-row failure citing the column name.
var requiredColumns = []string{
	"sku", "name", "expiration_date", "quantity", "price",
	"location", "description", "category", "provider_id",
}

var expirationLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

const markFailedAttempts = 3

// Result aggregates the outcome of one consumed import job.
type Result struct {
	JobID            string   `json:"history_id"`
	FileName         string   `json:"file_name"`
	Total            int      `json:"total_records"`
	Successful       int      `json:"successful_records"`
	Failed           int      `json:"failed_records"`
	Summary          string   `json:"result"`
	Errors           []string `json:"errors"`
	AlreadyProcessed bool     `json:"already_processed,omitempty"`
}

// Consumer runs once per delivered import event: it resolves the job, fetches
// the file, ingests rows one by one and finalizes the job with an aggregate
// outcome. Row failures are collected, never raised.
type Consumer struct {
	jobs         repository.ImportJobRepository
	products     repository.ProductRepository
	blobs        storage.BlobStore
	photoBaseURL string
}

// NewConsumer wires the consumption side of the import pipeline.
func NewConsumer(
	jobs repository.ImportJobRepository,
	products repository.ProductRepository,
	blobs storage.BlobStore,
	photoBaseURL string,
) *Consumer {
	return &Consumer{
		jobs:         jobs,
		products:     products,
		blobs:        blobs,
		photoBaseURL: strings.TrimRight(photoBaseURL, "/"),
	}
}

// HandleEvent adapts the consumer to the message channel handler signature.
func (c *Consumer) HandleEvent(ctx context.Context, event events.ImportEvent) error {
	jobID, err := uuid.Parse(event.JobID)
	if err != nil {
		// Permanent rejection; retrying an unparseable id cannot help.
		log.Printf("[IMPORT] discarding event with invalid job id %q: %v", event.JobID, err)
		return nil
	}

	result, err := c.ProcessJob(ctx, jobID)
	if err != nil {
		return err
	}

	log.Printf("[IMPORT] job %s processed - %s", result.JobID, result.Summary)
	return nil
}

// ProcessJob ingests the file referenced by the job. Re-delivery of an
// already-terminal job is a no-op. Any pipeline error after the job lookup
// triggers the compensating mark-failed path.
func (c *Consumer) ProcessJob(ctx context.Context, jobID uuid.UUID) (Result, error) {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		// Nothing to update; NotFound aborts with no state touched.
		return Result{}, err
	}

	if job.IsTerminal() {
		summary := ""
		if job.Result != nil {
			summary = *job.Result
		}
		log.Printf("[IMPORT] job %s already %s, skipping re-delivery", job.ID, job.Status)
		return Result{
			JobID:            job.ID.String(),
			FileName:         job.FileKey,
			Summary:          summary,
			AlreadyProcessed: true,
		}, nil
	}

	result, err := c.process(ctx, job)
	if err != nil {
		c.failJob(ctx, job.ID, err)
		return Result{}, err
	}
	return result, nil
}

func (c *Consumer) process(ctx context.Context, job domain.ImportJob) (Result, error) {
	data, err := c.blobs.Get(ctx, job.FileKey)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch file %s: %w", job.FileKey, err)
	}

	tbl, err := parseTable(job.FileKey, data)
	if err != nil {
		return Result{}, err
	}

	total := len(tbl.rows)
	successful := 0
	rowErrors := []string{}

	for idx, row := range tbl.rows {
		rowNumber := idx + 1 // data rows are 1-indexed after the header

		product, rowErr := c.productFromRow(tbl.headers, row)
		if rowErr == nil {
			_, rowErr = c.products.Create(ctx, product)
		}
		if rowErr != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %s", rowNumber, rowErr))
			log.Printf("[IMPORT] job %s row %d rejected: %v", job.ID, rowNumber, rowErr)
			continue
		}
		successful++
	}

	summary := fmt.Sprintf("%d/%d entries registered", successful, total)
	applied, err := c.jobs.Finalize(ctx, job.ID, summary)
	if err != nil {
		return Result{}, fmt.Errorf("failed to finalize job: %w", err)
	}
	if !applied {
		log.Printf("[IMPORT] job %s reached a terminal state concurrently, finalize skipped", job.ID)
	}

	return Result{
		JobID:      job.ID.String(),
		FileName:   job.FileKey,
		Total:      total,
		Successful: successful,
		Failed:     total - successful,
		Summary:    summary,
		Errors:     rowErrors,
	}, nil
}

// failJob is the compensating write marking the job Failed. It is retried
// independently of the main path; if every attempt fails the job stays
// Pending and the condition is only observable through logs.
func (c *Consumer) failJob(ctx context.Context, jobID uuid.UUID, cause error) {
	result := fmt.Sprintf("Error: %s", cause.Error())

	for attempt := 1; attempt <= markFailedAttempts; attempt++ {
		applied, err := c.jobs.MarkFailed(ctx, jobID, result)
		if err == nil {
			if !applied {
				log.Printf("[IMPORT] job %s already terminal, mark-failed skipped", jobID)
			}
			return
		}

		log.Printf("[IMPORT] mark-failed attempt %d/%d for job %s failed: %v",
			attempt, markFailedAttempts, jobID, err)
		if attempt < markFailedAttempts {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
	}

	log.Printf("[IMPORT] ALERT: job %s could not be marked failed and is left Pending (cause: %v)", jobID, cause)
}

func (c *Consumer) productFromRow(headers []string, row []string) (domain.Product, error) {
	values := make(map[string]string, len(headers))
	present := make(map[string]bool, len(headers))
	for idx, header := range headers {
		if idx < len(row) {
			values[header] = strings.TrimSpace(row[idx])
		}
		present[header] = true
	}

	for _, column := range requiredColumns {
		if !present[column] {
			return domain.Product{}, domain.NewValidationErrorf("required column not found: %s", column)
		}
	}

	expiration, err := parseExpiration(values["expiration_date"])
	if err != nil {
		return domain.Product{}, err
	}

	quantity, err := coerceInt(values["quantity"])
	if err != nil {
		return domain.Product{}, domain.NewValidationErrorf("quantity must be an integer, got %q", values["quantity"])
	}

	price, err := strconv.ParseFloat(values["price"], 64)
	if err != nil {
		return domain.Product{}, domain.NewValidationErrorf("price must be numeric, got %q", values["price"])
	}

	photoFilename := optionalField(values["photo_filename"])
	photoURL := optionalField(values["photo_url"])
	if photoFilename != nil && photoURL == nil && c.photoBaseURL != "" {
		derived := fmt.Sprintf("%s/%s", c.photoBaseURL, *photoFilename)
		photoURL = &derived
	}

	product := domain.NewProduct(
		values["sku"],
		values["name"],
		expiration,
		quantity,
		price,
		values["location"],
		values["description"],
		values["category"],
		values["provider_id"],
		photoFilename,
		photoURL,
	)
	return product, nil
}

// parseExpiration tries strict ISO-8601 first (a trailing Z meaning UTC) and
// falls back to the flexible layouts spreadsheets tend to produce.
func parseExpiration(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.NewValidationError("expiration date is required")
	}

	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	for _, layout := range expirationLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, domain.NewValidationErrorf("invalid date format: %q", raw)
}

func coerceInt(raw string) (int, error) {
	if i, err := strconv.Atoi(raw); err == nil {
		return i, nil
	}
	// Spreadsheets render integers as floats; accept lossless conversions.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, fmt.Errorf("not an integer: %q", raw)
}

// optionalField maps empty or absent cells to nil, never the empty string.
func optionalField(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
