package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// DocumentService exposes lookups and removal of ingested documents.
type DocumentService struct {
	documents repositories.DocumentRepository
	logger    *zap.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(documents repositories.DocumentRepository, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		documents: documents,
		logger:    logger.Named("documents"),
	}
}

// Get returns the document with the given ID, or apperrors.ErrNotFound.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return s.documents.GetDocument(ctx, id)
}

// Delete removes a document and its chunks. Chunks cascade at the
// store level, so removed documents drop out of semantic retrieval
// immediately.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.documents.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Document deleted", zap.String("document_id", id.String()))
	return nil
}
