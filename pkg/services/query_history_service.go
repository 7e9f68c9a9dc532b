package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// QueryHistoryService records and lists answered questions.
type QueryHistoryService struct {
	repo   repositories.QueryHistoryRepository
	logger *zap.Logger
}

// NewQueryHistoryService creates a query history service.
func NewQueryHistoryService(repo repositories.QueryHistoryRepository, logger *zap.Logger) *QueryHistoryService {
	return &QueryHistoryService{
		repo:   repo,
		logger: logger.Named("query_history"),
	}
}

var _ HistoryRecorder = (*QueryHistoryService)(nil)

// Record appends a log entry. Failures are logged but never fail the
// query that produced the entry.
func (s *QueryHistoryService) Record(ctx context.Context, entry *models.QueryLogEntry) {
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to record query history", zap.Error(err))
	}
}

// List returns recent entries, most recent first. A sessionID filters to
// one conversation; limit <= 0 uses the repository default.
func (s *QueryHistoryService) List(ctx context.Context, limit int, sessionID string) ([]*models.QueryLogEntry, error) {
	return s.repo.List(ctx, limit, sessionID)
}
