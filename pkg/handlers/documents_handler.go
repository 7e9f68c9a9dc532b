package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/services"
)

// DocumentsHandler serves lookup and removal of ingested documents.
type DocumentsHandler struct {
	documents *services.DocumentService
	logger    *zap.Logger
}

// NewDocumentsHandler creates a documents handler.
func NewDocumentsHandler(documents *services.DocumentService, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, logger: logger}
}

// RegisterRoutes registers the document routes on the given mux.
func (h *DocumentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/documents/{documentId}", h.Get)
	mux.HandleFunc("DELETE /api/documents/{documentId}", h.Delete)
}

// Get handles GET /api/documents/{documentId}. The response carries
// metadata only; extracted content stays server side.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	docID, err := uuid.Parse(r.PathValue("documentId"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusNotFound, "document not found")
		return
	}

	doc, err := h.documents.Get(r.Context(), docID)
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = ErrorResponse(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load document", zap.String("document_id", docID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	payload := map[string]any{
		"success": true,
		"document": map[string]any{
			"id":         doc.ID,
			"fileName":   doc.FileName,
			"fileType":   doc.FileType,
			"fileSize":   doc.FileSize,
			"chunkCount": doc.ChunkCount,
			"createdAt":  doc.CreatedAt,
		},
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode document response", zap.Error(err))
	}
}

// Delete handles DELETE /api/documents/{documentId}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	docID, err := uuid.Parse(r.PathValue("documentId"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusNotFound, "document not found")
		return
	}

	err = h.documents.Delete(r.Context(), docID)
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = ErrorResponse(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete document", zap.String("document_id", docID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	payload := map[string]any{
		"success":    true,
		"documentId": docID,
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode delete response", zap.Error(err))
	}
}
