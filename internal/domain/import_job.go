package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks the lifecycle of an import job. Pending is the only
// non-terminal state; a terminal job is never re-opened.
type JobStatus string

const (
	JobStatusPending   JobStatus = "Pending"
	JobStatusFinalized JobStatus = "Finalized"
	JobStatusFailed    JobStatus = "Failed"
)

const (
	maxFileKeyLen     = 100
	maxSubmitterIDLen = 36
	maxStatusLen      = 20
)

// ImportJob is the durable record of one bulk-import attempt.
type ImportJob struct {
	ID          uuid.UUID  `json:"id"`
	FileKey     string     `json:"file_key"`
	SubmitterID string     `json:"submitter_id"`
	Status      JobStatus  `json:"status"`
	Result      *string    `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// NewImportJob creates a Pending job for the uploaded file key.
func NewImportJob(fileKey, submitterID string) ImportJob {
	return ImportJob{
		ID:          uuid.New(),
		FileKey:     fileKey,
		SubmitterID: submitterID,
		Status:      JobStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks required fields and column bounds.
func (j ImportJob) Validate() error {
	if j.FileKey == "" {
		return NewValidationError("file key is required")
	}
	if j.SubmitterID == "" {
		return NewValidationError("submitter id is required")
	}
	if j.Status == "" {
		return NewValidationError("status is required")
	}
	if len(j.FileKey) > maxFileKeyLen {
		return NewValidationErrorf("file key cannot exceed %d characters", maxFileKeyLen)
	}
	if len(j.SubmitterID) > maxSubmitterIDLen {
		return NewValidationErrorf("submitter id cannot exceed %d characters", maxSubmitterIDLen)
	}
	if len(j.Status) > maxStatusLen {
		return NewValidationErrorf("status cannot exceed %d characters", maxStatusLen)
	}
	return nil
}

// IsTerminal reports whether the job already reached Finalized or Failed.
func (j ImportJob) IsTerminal() bool {
	return j.Status == JobStatusFinalized || j.Status == JobStatusFailed
}
