package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/extract"
	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// UploadedFile is one file from a multipart ingestion request.
type UploadedFile struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// IngestionService turns uploaded documents into searchable chunks.
type IngestionService struct {
	documents repositories.DocumentRepository
	jobs      repositories.JobRepository
	extractor extract.Extractor
	chunker   *Chunker
	embedder  Embedder
	logger    *zap.Logger
}

// NewIngestionService creates a document ingestion service.
func NewIngestionService(
	documents repositories.DocumentRepository,
	jobs repositories.JobRepository,
	extractor extract.Extractor,
	chunker *Chunker,
	embedder Embedder,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		documents: documents,
		jobs:      jobs,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		logger:    logger.Named("ingestion"),
	}
}

// IngestDocuments processes a batch of uploads under one job. Files are
// processed independently; a bad file is recorded in the job metadata
// without aborting the rest. The job fails only when every file fails.
// Returns the job together with the documents that were stored.
func (s *IngestionService) IngestDocuments(ctx context.Context, files []UploadedFile) (*models.IngestionJob, []*models.Document, error) {
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: no files provided", apperrors.ErrValidation)
	}

	job := &models.IngestionJob{
		JobID:  uuid.New(),
		Type:   models.JobTypeDocuments,
		Status: models.JobStatusProcessing,
		Metadata: map[string]any{
			"fileCount": len(files),
		},
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to create ingestion job: %w", err)
	}

	var (
		stored      []*models.Document
		documentIDs []string
		fileErrors  []string
		totalChunks int
	)
	for _, file := range files {
		doc, chunkCount, err := s.ingestFile(ctx, file)
		if err != nil {
			s.logger.Warn("File ingestion failed",
				zap.String("file", file.Name), zap.Error(err))
			fileErrors = append(fileErrors, fmt.Sprintf("%s: %v", file.Name, err))
			continue
		}
		stored = append(stored, doc)
		documentIDs = append(documentIDs, doc.ID.String())
		totalChunks += chunkCount
	}

	job.Metadata["documentIds"] = documentIDs
	job.Metadata["chunkCount"] = totalChunks
	if len(fileErrors) > 0 {
		job.Metadata["errors"] = fileErrors
	}

	if len(stored) == 0 {
		job.Status = models.JobStatusFailed
	} else {
		job.Status = models.JobStatusCompleted
	}
	if err := s.jobs.Update(ctx, job.JobID, job.Status, job.Metadata); err != nil {
		s.logger.Warn("Failed to finalize ingestion job", zap.Error(err))
	}

	s.logger.Info("Document ingestion finished",
		zap.String("job_id", job.JobID.String()),
		zap.Int("files", len(files)),
		zap.Int("documents", len(stored)),
		zap.Int("chunks", totalChunks))
	return job, stored, nil
}

func (s *IngestionService) ingestFile(ctx context.Context, file UploadedFile) (*models.Document, int, error) {
	text, err := s.extractor.Extract(ctx, file.Name, file.MIMEType, file.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to extract text: %w", err)
	}

	chunkSize := s.chunker.ChunkSizeFor(file.MIMEType)
	chunks := s.chunker.ChunkText(text, chunkSize)
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("%w: file contains no extractable text", apperrors.ErrValidation)
	}

	embeddings, err := s.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	doc := &models.Document{
		ID:         uuid.New(),
		FileName:   file.Name,
		FileType:   file.MIMEType,
		FileSize:   file.Size,
		Content:    text,
		ChunkCount: len(chunks),
	}
	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		return nil, 0, fmt.Errorf("failed to store document: %w", err)
	}

	for i, content := range chunks {
		chunk := &models.DocumentChunk{
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			Content:     content,
			Embedding:   embeddings[i].Embedding,
			Placeholder: embeddings[i].Placeholder,
		}
		if err := s.documents.CreateChunk(ctx, chunk); err != nil {
			return nil, 0, fmt.Errorf("failed to store chunk %d: %w", i, err)
		}
	}

	return doc, len(chunks), nil
}
