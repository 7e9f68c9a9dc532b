package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// JobService exposes ingestion job status lookups.
type JobService struct {
	jobs repositories.JobRepository
}

// NewJobService creates a job status service.
func NewJobService(jobs repositories.JobRepository) *JobService {
	return &JobService{jobs: jobs}
}

// Get returns the job with the given ID, or apperrors.ErrNotFound.
func (s *JobService) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	return s.jobs.Get(ctx, jobID)
}
