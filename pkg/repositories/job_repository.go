package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/database"
	"github.com/orglens/orglens-engine/pkg/models"
)

// JobRepository tracks ingestion job lifecycle state.
type JobRepository interface {
	Create(ctx context.Context, job *models.IngestionJob) error
	Update(ctx context.Context, jobID uuid.UUID, status models.JobStatus, metadata map[string]any) error
	Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error)
}

type jobRepository struct {
	db *database.DB
}

// NewJobRepository creates an ingestion job repository.
func NewJobRepository(db *database.DB) JobRepository {
	return &jobRepository{db: db}
}

var _ JobRepository = (*jobRepository)(nil)

func (r *jobRepository) Create(ctx context.Context, job *models.IngestionJob) error {
	metaJSON, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal job metadata: %w", err)
	}

	const query = `
		INSERT INTO ingestion_jobs (job_id, job_type, status, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err = r.db.QueryRow(ctx, query, job.JobID, job.Type, job.Status, metaJSON).
		Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ingestion job: %w", err)
	}

	return nil
}

func (r *jobRepository) Update(ctx context.Context, jobID uuid.UUID, status models.JobStatus, metadata map[string]any) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal job metadata: %w", err)
	}

	var completedAt *time.Time
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		now := time.Now().UTC()
		completedAt = &now
	}

	const query = `
		UPDATE ingestion_jobs
		SET status = $2, metadata = $3, completed_at = $4
		WHERE job_id = $1`

	tag, err := r.db.Exec(ctx, query, jobID, status, metaJSON, completedAt)
	if err != nil {
		return fmt.Errorf("failed to update ingestion job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *jobRepository) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	const query = `
		SELECT job_id, job_type, status, metadata, created_at, completed_at
		FROM ingestion_jobs
		WHERE job_id = $1`

	var (
		job      models.IngestionJob
		metaJSON []byte
	)
	err := r.db.QueryRow(ctx, query, jobID).
		Scan(&job.JobID, &job.Type, &job.Status, &metaJSON, &job.CreatedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingestion job: %w", err)
	}

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &job.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job metadata: %w", err)
		}
	}

	return &job, nil
}
