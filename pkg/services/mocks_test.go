package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// mockDocumentRepo is an in-memory DocumentRepository.
type mockDocumentRepo struct {
	documents map[uuid.UUID]*models.Document
	chunks    []repositories.SearchableChunk
	listErr   error
	createErr error
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{documents: make(map[uuid.UUID]*models.Document)}
}

func (m *mockDocumentRepo) CreateDocument(ctx context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) CreateChunk(ctx context.Context, chunk *models.DocumentChunk) error {
	if m.createErr != nil {
		return m.createErr
	}
	fileName := ""
	if doc, ok := m.documents[chunk.DocumentID]; ok {
		fileName = doc.FileName
	}
	if !chunk.Placeholder {
		m.chunks = append(m.chunks, repositories.SearchableChunk{
			DocumentChunk: *chunk,
			FileName:      fileName,
		})
	}
	return nil
}

func (m *mockDocumentRepo) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s not found", id)
	}
	return doc, nil
}

func (m *mockDocumentRepo) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	delete(m.documents, id)
	return nil
}

func (m *mockDocumentRepo) ListSearchableChunks(ctx context.Context) ([]repositories.SearchableChunk, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.chunks, nil
}

// mockEmbedder returns fixed vectors without any upstream calls.
type mockEmbedder struct {
	queryVec   []float32
	queryErr   error
	chunkVecs  [][]float32
	chunksErr  error
	embedCalls int
}

func (m *mockEmbedder) EmbedChunks(ctx context.Context, chunks []string) ([]EmbeddingResult, error) {
	m.embedCalls++
	if m.chunksErr != nil {
		return nil, m.chunksErr
	}
	results := make([]EmbeddingResult, len(chunks))
	for i := range chunks {
		if i < len(m.chunkVecs) {
			results[i] = EmbeddingResult{Embedding: m.chunkVecs[i]}
		} else {
			results[i] = EmbeddingResult{Embedding: []float32{1, 0}, Placeholder: false}
		}
	}
	return results, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.queryVec, nil
}

// mockJobRepo is an in-memory JobRepository.
type mockJobRepo struct {
	jobs      map[uuid.UUID]*models.IngestionJob
	createErr error
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[uuid.UUID]*models.IngestionJob)}
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.IngestionJob) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *job
	m.jobs[job.JobID] = &copied
	return nil
}

func (m *mockJobRepo) Update(ctx context.Context, jobID uuid.UUID, status models.JobStatus, metadata map[string]any) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.Status = status
	job.Metadata = metadata
	return nil
}

func (m *mockJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return job, nil
}

// mockSchemaProvider serves a fixed snapshot.
type mockSchemaProvider struct {
	snapshot *models.SchemaSnapshot
	err      error
}

func (m *mockSchemaProvider) Latest(ctx context.Context) (*models.SchemaSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func employeeSnapshot() *models.SchemaSnapshot {
	return &models.SchemaSnapshot{
		Schema: models.SchemaDescription{
			Tables: []models.TableDescription{
				{
					Name: "employees",
					Columns: []models.ColumnDescription{
						{Name: "id", DataType: "integer", IsPrimary: true},
						{Name: "name", DataType: "text"},
						{Name: "salary", DataType: "numeric"},
						{Name: "department_id", DataType: "integer"},
					},
					RowCount: 42,
				},
				{
					Name: "departments",
					Columns: []models.ColumnDescription{
						{Name: "id", DataType: "integer", IsPrimary: true},
						{Name: "name", DataType: "text"},
					},
					RowCount: 5,
				},
			},
		},
		DatabaseType:     "postgresql",
		ConnectionString: "host=localhost",
	}
}
