package domain

import (
	"fmt"
	"time"
)

// IngestionJobStatus represents the status of an ingestion job
type IngestionJobStatus string

const (
	IngestionJobStatusPending    IngestionJobStatus = "pending"
	IngestionJobStatusProcessing IngestionJobStatus = "processing"
	IngestionJobStatusCompleted  IngestionJobStatus = "completed"
	IngestionJobStatusFailed     IngestionJobStatus = "failed"
)

// IngestionJobType distinguishes first uploads from reprocessing runs
type IngestionJobType string

const (
	IngestionJobTypeUpload    IngestionJobType = "upload"
	IngestionJobTypeReprocess IngestionJobType = "reprocess"
)

// IngestionJob tracks one processing attempt for one document revision.
// Completed and failed are terminal; a job is never resumed, only re-issued
// by submitting a new revision.
type IngestionJob struct {
	ID           string
	DocumentID   string
	RevisionID   string
	JobType      IngestionJobType
	Status       IngestionJobStatus
	Progress     int
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *IngestionJob) IsTerminal() bool {
	return j.Status == IngestionJobStatusCompleted || j.Status == IngestionJobStatusFailed
}

// NewIngestionJob creates a new pending IngestionJob instance
func NewIngestionJob(id, documentID, revisionID string, jobType IngestionJobType, createdAt time.Time) *IngestionJob {
	return &IngestionJob{
		ID:         id,
		DocumentID: documentID,
		RevisionID: revisionID,
		JobType:    jobType,
		Status:     IngestionJobStatusPending,
		Progress:   0,
		CreatedAt:  createdAt,
	}
}

// ValidateIngestionJob validates an IngestionJob instance
func ValidateIngestionJob(j *IngestionJob) error {
	if j == nil {
		return fmt.Errorf("ingestion job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ingestion job ID is required")
	}

	if j.DocumentID == "" {
		return fmt.Errorf("ingestion job DocumentID is required")
	}

	if j.RevisionID == "" {
		return fmt.Errorf("ingestion job RevisionID is required")
	}

	if !isValidIngestionJobType(j.JobType) {
		return fmt.Errorf("ingestion job JobType is invalid: %s", j.JobType)
	}

	if !isValidIngestionJobStatus(j.Status) {
		return fmt.Errorf("ingestion job Status is invalid: %s", j.Status)
	}

	if j.Progress < 0 || j.Progress > 100 {
		return fmt.Errorf("ingestion job Progress must be in [0,100]: %d", j.Progress)
	}

	return nil
}

// isValidIngestionJobStatus checks if an IngestionJobStatus is valid
func isValidIngestionJobStatus(s IngestionJobStatus) bool {
	switch s {
	case IngestionJobStatusPending, IngestionJobStatusProcessing,
		IngestionJobStatusCompleted, IngestionJobStatusFailed:
		return true
	}
	return false
}

// isValidIngestionJobType checks if an IngestionJobType is valid
func isValidIngestionJobType(t IngestionJobType) bool {
	switch t {
	case IngestionJobTypeUpload, IngestionJobTypeReprocess:
		return true
	}
	return false
}
