package domain

import (
	"strings"
	"testing"
)

func TestNewImportJobStartsPending(t *testing.T) {
	job := NewImportJob("processed-products/products_x.csv", "user-1")

	if job.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("job id not assigned")
	}
	if job.Status != JobStatusPending {
		t.Fatalf("expected Pending, got %s", job.Status)
	}
	if job.Result != nil || job.UpdatedAt != nil {
		t.Fatalf("result and updated_at must start unset")
	}
	if job.CreatedAt.IsZero() {
		t.Fatalf("created_at not stamped")
	}
	if err := job.Validate(); err != nil {
		t.Fatalf("fresh job rejected: %v", err)
	}
}

func TestImportJobValidateBounds(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*ImportJob)
		wantMsg string
	}{
		{"empty file key", func(j *ImportJob) { j.FileKey = "" }, "file key is required"},
		{"empty submitter", func(j *ImportJob) { j.SubmitterID = "" }, "submitter id is required"},
		{"empty status", func(j *ImportJob) { j.Status = "" }, "status is required"},
		{"file key too long", func(j *ImportJob) { j.FileKey = strings.Repeat("k", 101) }, "100 characters"},
		{"submitter too long", func(j *ImportJob) { j.SubmitterID = strings.Repeat("u", 37) }, "36 characters"},
		{"status too long", func(j *ImportJob) { j.Status = JobStatus(strings.Repeat("s", 21)) }, "20 characters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := NewImportJob("processed-products/products_x.csv", "user-1")
			tc.mutate(&job)
			err := job.Validate()
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestImportJobIsTerminal(t *testing.T) {
	job := NewImportJob("processed-products/products_x.csv", "user-1")
	if job.IsTerminal() {
		t.Fatalf("Pending must not be terminal")
	}

	job.Status = JobStatusFinalized
	if !job.IsTerminal() {
		t.Fatalf("Finalized must be terminal")
	}

	job.Status = JobStatusFailed
	if !job.IsTerminal() {
		t.Fatalf("Failed must be terminal")
	}
}
