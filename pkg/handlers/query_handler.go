package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/services"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

// QueryHandler serves natural-language queries and query history.
type QueryHandler struct {
	engine  *services.Engine
	history *services.QueryHistoryService
	logger  *zap.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(engine *services.Engine, history *services.QueryHistoryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{engine: engine, history: history, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Query)
	mux.HandleFunc("GET /api/query/history", h.History)
}

// Query handles POST /api/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.engine.Query(r.Context(), req.Question, req.SessionID)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	envelope := Envelope{
		Success:      true,
		Result:       result.Response,
		ResponseTime: result.ResponseTimeMs,
		CacheHit:     result.CacheHit,
		QueryType:    result.QueryType,
	}
	if err := WriteJSON(w, http.StatusOK, envelope); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// History handles GET /api/query/history. Optional query parameters:
// limit (default 50) and sessionId.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			_ = ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	sessionID := r.URL.Query().Get("sessionId")

	entries, err := h.history.List(r.Context(), limit, sessionID)
	if err != nil {
		h.logger.Error("Failed to list query history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "failed to list query history")
		return
	}
	if entries == nil {
		entries = []*models.QueryLogEntry{}
	}

	payload := map[string]any{
		"success": true,
		"history": entries,
		"count":   len(entries),
	}
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}

func (h *QueryHandler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUnsafeQuery):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusConflict, "no datasource registered; ingest a database first")
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		_ = ErrorResponse(w, http.StatusBadGateway, "completion service unavailable")
	default:
		h.logger.Error("Query failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "query failed")
	}
}
