package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/database"
	"github.com/orglens/orglens-engine/pkg/models"
)

// DocumentRepository provides data access for documents and their
// chunks.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	CreateChunk(ctx context.Context, chunk *models.DocumentChunk) error

	// GetDocument and DeleteDocument return apperrors.ErrNotFound for
	// unknown IDs.
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	// ListSearchableChunks returns all chunks with real (non-placeholder)
	// embeddings joined with the owning document's file name.
	ListSearchableChunks(ctx context.Context) ([]SearchableChunk, error)
}

// SearchableChunk is a chunk ready for similarity search.
type SearchableChunk struct {
	models.DocumentChunk
	FileName string
}

type documentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a document repository.
func NewDocumentRepository(db *database.DB) DocumentRepository {
	return &documentRepository{db: db}
}

var _ DocumentRepository = (*documentRepository)(nil)

func (r *documentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	const query = `
		INSERT INTO documents (id, file_name, file_type, file_size, content, chunk_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		doc.ID, doc.FileName, doc.FileType, doc.FileSize, doc.Content, doc.ChunkCount,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *documentRepository) CreateChunk(ctx context.Context, chunk *models.DocumentChunk) error {
	const query = `
		INSERT INTO document_chunks (document_id, chunk_index, content, embedding, is_placeholder)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		chunk.DocumentID, chunk.ChunkIndex, chunk.Content, chunk.Embedding, chunk.Placeholder,
	)
	if err != nil {
		return fmt.Errorf("failed to create chunk %d: %w", chunk.ChunkIndex, err)
	}

	return nil
}

func (r *documentRepository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	const query = `
		SELECT id, file_name, file_type, file_size, content, chunk_count, created_at
		FROM documents WHERE id = $1`

	var doc models.Document
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.FileName, &doc.FileType, &doc.FileSize,
		&doc.Content, &doc.ChunkCount, &doc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// DeleteDocument removes a document; its chunks cascade.
func (r *documentRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *documentRepository) ListSearchableChunks(ctx context.Context) ([]SearchableChunk, error) {
	const query = `
		SELECT c.document_id, c.chunk_index, c.content, c.embedding, d.file_name
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.is_placeholder = FALSE
		ORDER BY c.document_id, c.chunk_index`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []SearchableChunk
	for rows.Next() {
		var c SearchableChunk
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Content, &c.Embedding, &c.FileName); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return chunks, nil
}
