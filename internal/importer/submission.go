package importer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/medisupply/inventory/internal/config"
	"github.com/medisupply/inventory/internal/domain"
	"github.com/medisupply/inventory/internal/events"
	"github.com/medisupply/inventory/internal/repository"
	"github.com/medisupply/inventory/internal/storage"

	"github.com/google/uuid"
)

var allowedImportExtensions = map[string]bool{
	".csv":  true,
	".xls":  true,
	".xlsx": true,
}

// Submission is one inbound bulk-import request.
type Submission struct {
	FileName    string
	Data        []byte
	SubmitterID string
}

// Receipt is returned to the caller after a submission is accepted.
type Receipt struct {
	JobID   uuid.UUID `json:"history_id"`
	Message string    `json:"message"`
}

// SubmissionService validates an uploaded product file, stores it, records an
// import job and publishes the import-started event. The side-effect order is
// fixed: validate, upload, create job, publish. Publishing last keeps orphan
// job records to a minimum at the cost of possible orphan blobs.
type SubmissionService struct {
	jobs       repository.ImportJobRepository
	blobs      storage.BlobStore
	publisher  events.Publisher
	storageCfg config.StorageConfig
	maxRows    int
}

// NewSubmissionService wires the submission side of the import pipeline.
func NewSubmissionService(
	jobs repository.ImportJobRepository,
	blobs storage.BlobStore,
	publisher events.Publisher,
	storageCfg config.StorageConfig,
	importCfg config.ImportConfig,
) *SubmissionService {
	return &SubmissionService{
		jobs:       jobs,
		blobs:      blobs,
		publisher:  publisher,
		storageCfg: storageCfg,
		maxRows:    importCfg.MaxRows,
	}
}

// Submit runs the submission pipeline and returns the created job reference.
func (s *SubmissionService) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	if err := s.validate(sub); err != nil {
		return Receipt{}, err
	}

	key := s.generateFileKey(sub.FileName)

	metadata := storage.Metadata{
		"original_filename": sub.FileName,
		"uploaded_by":       s.storageCfg.UploaderTag,
	}
	if err := s.blobs.Put(ctx, key, sub.Data, metadata); err != nil {
		return Receipt{}, domain.NewInfrastructureError("upload file to blob store", err)
	}

	job, err := s.jobs.Create(ctx, domain.NewImportJob(key, sub.SubmitterID))
	if err != nil {
		if domain.IsValidation(err) {
			return Receipt{}, err
		}
		return Receipt{}, domain.NewInfrastructureError("create import job record", err)
	}

	// The job record is intentionally not rolled back on publish failure; the
	// accepted inconsistency is a Pending job nobody will deliver.
	messageID, err := s.publisher.Publish(ctx, events.NewImportEvent(job.ID))
	if err != nil {
		return Receipt{}, domain.NewInfrastructureError("publish import event", err)
	}

	log.Printf("[IMPORT] submission accepted - job %s, file %s, message %s", job.ID, key, messageID)

	return Receipt{JobID: job.ID, Message: "File uploaded successfully"}, nil
}

func (s *SubmissionService) validate(sub Submission) error {
	if len(sub.Data) == 0 || sub.FileName == "" {
		return domain.NewValidationError("the file is required")
	}
	if strings.TrimSpace(sub.SubmitterID) == "" {
		return domain.NewValidationError("the userId is required")
	}

	ext := strings.ToLower(filepath.Ext(sub.FileName))
	if ext == "" {
		return domain.NewValidationError("the file has no extension")
	}
	if !allowedImportExtensions[ext] {
		return domain.NewValidationError("only CSV/Excel files are allowed")
	}

	// Eager parse pass; the file is read again later by the consumer.
	tbl, err := parseTable(sub.FileName, sub.Data)
	if err != nil {
		return domain.NewValidationErrorf("failed to validate the file: %v", err)
	}
	if count := len(tbl.rows); count > s.maxRows {
		return domain.NewValidationErrorf(
			"at most %d products can be imported, the file contains %d records",
			s.maxRows, count,
		)
	}

	return nil
}

// generateFileKey combines the original base name with a fresh token inside
// the processed folder, e.g. processed-products/products_<uuid>.csv.
func (s *SubmissionService) generateFileKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s_%s%s", s.storageCfg.ProcessedFolder, base, uuid.NewString(), ext)
}
