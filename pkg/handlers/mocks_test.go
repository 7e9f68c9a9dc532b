package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/adapters/datasource"
	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/extract"
	"github.com/orglens/orglens-engine/pkg/llm"
	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
	"github.com/orglens/orglens-engine/pkg/services"
)

// In-memory fakes implementing the repository and adapter interfaces the
// handlers' service graph needs.

var assertableConnErr = errors.New("connection refused")

type fakeCacheRepo struct {
	entries map[string]*models.QueryResponse
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string]*models.QueryResponse)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string) (*models.QueryResponse, error) {
	return f.entries[key], nil
}

func (f *fakeCacheRepo) Upsert(ctx context.Context, key string, response *models.QueryResponse, expiresAt time.Time) error {
	f.entries[key] = response
	return nil
}

func (f *fakeCacheRepo) PruneExpired(ctx context.Context) (int64, error) { return 0, nil }

type fakeDocumentRepo struct {
	documents map[uuid.UUID]*models.Document
	chunks    []repositories.SearchableChunk
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{documents: make(map[uuid.UUID]*models.Document)}
}

func (f *fakeDocumentRepo) CreateDocument(ctx context.Context, doc *models.Document) error {
	f.documents[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) CreateChunk(ctx context.Context, chunk *models.DocumentChunk) error {
	fileName := ""
	if doc, ok := f.documents[chunk.DocumentID]; ok {
		fileName = doc.FileName
	}
	if !chunk.Placeholder {
		f.chunks = append(f.chunks, repositories.SearchableChunk{DocumentChunk: *chunk, FileName: fileName})
	}
	return nil
}

func (f *fakeDocumentRepo) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := f.documents[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocumentRepo) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.documents[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.documents, id)
	var kept []repositories.SearchableChunk
	for _, c := range f.chunks {
		if c.DocumentID != id {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

func (f *fakeDocumentRepo) ListSearchableChunks(ctx context.Context) ([]repositories.SearchableChunk, error) {
	return f.chunks, nil
}

type fakeHistoryRepo struct {
	entries []*models.QueryLogEntry
}

func (f *fakeHistoryRepo) Create(ctx context.Context, entry *models.QueryLogEntry) error {
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) List(ctx context.Context, limit int, sessionID string) ([]*models.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*models.QueryLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.entries[i]
		if sessionID != "" && (e.SessionID == nil || *e.SessionID != sessionID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeJobRepo struct {
	jobs map[uuid.UUID]*models.IngestionJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*models.IngestionJob)}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *models.IngestionJob) error {
	copied := *job
	f.jobs[job.JobID] = &copied
	return nil
}

func (f *fakeJobRepo) Update(ctx context.Context, jobID uuid.UUID, status models.JobStatus, metadata map[string]any) error {
	job, ok := f.jobs[jobID]
	if !ok {
		return apperrors.ErrNotFound
	}
	job.Status = status
	job.Metadata = metadata
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return job, nil
}

type fakeSchemaRepo struct {
	latest *models.SchemaSnapshot
}

func (f *fakeSchemaRepo) SaveSnapshot(ctx context.Context, jobID uuid.UUID, snapshot *models.SchemaSnapshot) error {
	f.latest = snapshot
	return nil
}

func (f *fakeSchemaRepo) Latest(ctx context.Context) (*models.SchemaSnapshot, error) {
	if f.latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.latest, nil
}

type fakeExecutor struct {
	rows []models.Row
}

func (f *fakeExecutor) Execute(ctx context.Context, sqlQuery string, limit int) ([]models.Row, error) {
	return f.rows, nil
}

func (f *fakeExecutor) Close() error { return nil }

type fakeIntrospector struct {
	tables  []models.TableDescription
	connErr error
}

func (f *fakeIntrospector) TestConnection(ctx context.Context) error { return f.connErr }

func (f *fakeIntrospector) Tables(ctx context.Context) ([]models.TableDescription, error) {
	return f.tables, nil
}

func (f *fakeIntrospector) ForeignKeys(ctx context.Context) ([]models.Relationship, error) {
	return nil, nil
}

func (f *fakeIntrospector) Close() error { return nil }

// testServices bundles the service graph handler tests run against.
type testServices struct {
	engine    *services.Engine
	history   *services.QueryHistoryService
	ingestion *services.IngestionService
	discovery *services.SchemaDiscovery
	jobs      *services.JobService
	documents *services.DocumentService
	jobRepo   *fakeJobRepo
	docRepo   *fakeDocumentRepo
}

func newTestServices(connErr error) *testServices {
	logger := zap.NewNop()

	mock := llm.NewMockCompletionClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "SELECT name FROM employees", nil
	}
	mock.CreateEmbeddingFunc = func(ctx context.Context, input string, model string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	mock.CreateEmbeddingsFunc = func(ctx context.Context, inputs []string, model string) ([][]float32, error) {
		vectors := make([][]float32, len(inputs))
		for i := range inputs {
			vectors[i] = []float32{1, 0}
		}
		return vectors, nil
	}

	docRepo := newFakeDocumentRepo()
	jobRepo := newFakeJobRepo()
	schemaRepo := &fakeSchemaRepo{}
	historyRepo := &fakeHistoryRepo{}

	tables := []models.TableDescription{
		{Name: "employees", Columns: []models.ColumnDescription{
			{Name: "id", DataType: "integer", IsPrimary: true},
			{Name: "name", DataType: "text"},
		}},
	}

	embedder := services.NewEmbedder(mock, "", 10, 2, logger)
	synthesizer := services.NewSynthesizer(mock, logger)
	discovery := services.NewSchemaDiscovery(schemaRepo, jobRepo,
		func(ctx context.Context, dbType, connString string, l *zap.Logger) (datasource.Introspector, error) {
			return &fakeIntrospector{tables: tables, connErr: connErr}, nil
		}, "", logger)
	structured := services.NewStructuredRetriever(synthesizer, discovery,
		func(ctx context.Context, dbType, connString string, l *zap.Logger) (datasource.QueryExecutor, error) {
			return &fakeExecutor{rows: []models.Row{{"name": "Ada"}}}, nil
		}, 100, logger)
	semantic := services.NewSemanticRetriever(docRepo, embedder, 5, logger)
	cache := services.NewQueryCache(newFakeCacheRepo(), time.Hour, logger)
	history := services.NewQueryHistoryService(historyRepo, logger)
	engine := services.NewEngine(services.NewClassifier(), cache, structured, semantic, history, logger)
	ingestion := services.NewIngestionService(docRepo, jobRepo, extract.NewPlainTextExtractor(), services.NewChunker(), embedder, logger)

	return &testServices{
		engine:    engine,
		history:   history,
		ingestion: ingestion,
		discovery: discovery,
		jobs:      services.NewJobService(jobRepo),
		documents: services.NewDocumentService(docRepo, logger),
		jobRepo:   jobRepo,
		docRepo:   docRepo,
	}
}

// registerDatasource runs discovery so the structured path has a schema.
func (ts *testServices) registerDatasource() error {
	_, _, err := ts.discovery.Discover(context.Background(), "postgresql", "host=test")
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	return nil
}
