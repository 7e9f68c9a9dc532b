package models

import (
	"time"

	"github.com/google/uuid"
)

// JobType identifies what an ingestion job was created for.
type JobType string

const (
	JobTypeDocuments JobType = "documents"
	JobTypeDatabase  JobType = "database"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IngestionJob tracks a document or database ingestion run.
type IngestionJob struct {
	JobID       uuid.UUID      `json:"jobId"`
	Type        JobType        `json:"type"`
	Status      JobStatus      `json:"status"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}
