package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/services"
)

// SchemaHandler serves the latest discovered schema.
type SchemaHandler struct {
	discovery *services.SchemaDiscovery
	logger    *zap.Logger
}

// NewSchemaHandler creates a schema handler.
func NewSchemaHandler(discovery *services.SchemaDiscovery, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{discovery: discovery, logger: logger}
}

// RegisterRoutes registers the schema route on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema", h.Schema)
}

// Schema handles GET /api/schema. When no datasource has been registered
// yet the result is null with an explanatory message rather than an
// error.
func (h *SchemaHandler) Schema(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.discovery.Latest(r.Context())
	if errors.Is(err, apperrors.ErrNotFound) {
		payload := map[string]any{
			"success": true,
			"schema":  nil,
			"message": "no schema discovered yet; connect a database first",
		}
		if err := WriteJSON(w, http.StatusOK, payload); err != nil {
			h.logger.Error("Failed to encode schema response", zap.Error(err))
		}
		return
	}
	if err != nil {
		h.logger.Error("Failed to load schema", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "failed to load schema")
		return
	}

	payload := map[string]any{
		"success":      true,
		"schema":       snapshot.Schema,
		"databaseType": snapshot.DatabaseType,
		"discoveredAt": snapshot.CreatedAt,
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode schema response", zap.Error(err))
	}
}
