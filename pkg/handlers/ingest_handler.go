package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/services"
)

// DatabaseIngestRequest is the body of POST /api/ingest/database.
type DatabaseIngestRequest struct {
	DatabaseType     string `json:"databaseType"`
	ConnectionString string `json:"connectionString"`
}

// DocumentSummary is the per-document slice of an upload response.
type DocumentSummary struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	ChunkCount int       `json:"chunkCount"`
}

// IngestHandler serves document upload and database registration.
type IngestHandler struct {
	ingestion      *services.IngestionService
	discovery      *services.SchemaDiscovery
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewIngestHandler creates an ingestion handler.
func NewIngestHandler(ingestion *services.IngestionService, discovery *services.SchemaDiscovery, maxUploadBytes int64, logger *zap.Logger) *IngestHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &IngestHandler{
		ingestion:      ingestion,
		discovery:      discovery,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the ingestion routes on the given mux.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ingest/documents", h.IngestDocuments)
	mux.HandleFunc("POST /api/ingest/database", h.IngestDatabase)
}

// IngestDocuments handles POST /api/ingest/documents. Files arrive as
// multipart form data under the "files" field.
func (h *IngestHandler) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		_ = ErrorResponse(w, http.StatusBadRequest, "no files provided; use multipart field \"files\"")
		return
	}

	files := make([]services.UploadedFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "failed to read uploaded file "+header.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "failed to read uploaded file "+header.Filename)
			return
		}
		files = append(files, services.UploadedFile{
			Name:     header.Filename,
			MIMEType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Data:     data,
		})
	}

	job, docs, err := h.ingestion.IngestDocuments(r.Context(), files)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}
	if job.Status == models.JobStatusFailed {
		_ = ErrorResponse(w, http.StatusInternalServerError, "ingestion failed for all files")
		return
	}

	summaries := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, DocumentSummary{
			ID:         doc.ID,
			FileName:   doc.FileName,
			FileType:   doc.FileType,
			FileSize:   doc.FileSize,
			ChunkCount: doc.ChunkCount,
		})
	}

	payload := map[string]any{
		"success":        true,
		"jobId":          job.JobID,
		"status":         job.Status,
		"processedCount": len(summaries),
		"documents":      summaries,
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode ingestion response", zap.Error(err))
	}
}

// IngestDatabase handles POST /api/ingest/database.
func (h *IngestHandler) IngestDatabase(w http.ResponseWriter, r *http.Request) {
	var req DatabaseIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DatabaseType == "" || req.ConnectionString == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "databaseType and connectionString are required")
		return
	}

	job, snapshot, err := h.discovery.Discover(r.Context(), req.DatabaseType, req.ConnectionString)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	payload := map[string]any{
		"success": true,
		"jobId":   job.JobID,
		"status":  job.Status,
		"schema":  snapshot.Schema,
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode discovery response", zap.Error(err))
	}
}

func (h *IngestHandler) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrConnectionFailed):
		_ = ErrorResponse(w, http.StatusInternalServerError, "could not connect to datasource")
	default:
		h.logger.Error("Ingestion failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "ingestion failed")
	}
}
