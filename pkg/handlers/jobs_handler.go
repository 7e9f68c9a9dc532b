package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/services"
)

// JobsHandler serves ingestion job status.
type JobsHandler struct {
	jobs   *services.JobService
	logger *zap.Logger
}

// NewJobsHandler creates a job status handler.
func NewJobsHandler(jobs *services.JobService, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{jobs: jobs, logger: logger}
}

// RegisterRoutes registers the job routes on the given mux.
func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/jobs/{jobId}", h.Get)
}

// Get handles GET /api/jobs/{jobId}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("jobId"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusNotFound, "job not found")
		return
	}

	job, err := h.jobs.Get(r.Context(), jobID)
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = ErrorResponse(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load job", zap.String("job_id", jobID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	payload := map[string]any{
		"success": true,
		"job":     job,
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode job response", zap.Error(err))
	}
}
