package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/extract"
	"github.com/orglens/orglens-engine/pkg/models"
)

func newTestIngestion(docRepo *mockDocumentRepo, jobRepo *mockJobRepo, embedder Embedder) *IngestionService {
	return NewIngestionService(
		docRepo,
		jobRepo,
		extract.NewPlainTextExtractor(),
		NewChunker(),
		embedder,
		zap.NewNop(),
	)
}

func TestIngestDocuments(t *testing.T) {
	docRepo := newMockDocumentRepo()
	jobRepo := newMockJobRepo()
	svc := newTestIngestion(docRepo, jobRepo, &mockEmbedder{})

	text := strings.Repeat("a", 2400)
	job, docs, err := svc.IngestDocuments(context.Background(), []UploadedFile{
		{Name: "notes.txt", MIMEType: "text/plain", Size: 2400, Data: []byte(text)},
	})
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, models.JobTypeDocuments, job.Type)
	assert.Equal(t, 6, job.Metadata["chunkCount"])
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.txt", docs[0].FileName)
	assert.Equal(t, 6, docs[0].ChunkCount)

	// Persisted job matches.
	stored, err := jobRepo.Get(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)

	// One document with six sequential chunks.
	require.Len(t, docRepo.documents, 1)
	require.Len(t, docRepo.chunks, 6)
	for i, chunk := range docRepo.chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "notes.txt", chunk.FileName)
	}
}

func TestIngestDocumentsNoFiles(t *testing.T) {
	svc := newTestIngestion(newMockDocumentRepo(), newMockJobRepo(), &mockEmbedder{})

	_, _, err := svc.IngestDocuments(context.Background(), nil)
	require.Error(t, err)
}

func TestIngestDocumentsBadFileDoesNotAbortBatch(t *testing.T) {
	docRepo := newMockDocumentRepo()
	jobRepo := newMockJobRepo()
	svc := newTestIngestion(docRepo, jobRepo, &mockEmbedder{})

	files := []UploadedFile{
		{Name: "binary.bin", MIMEType: "text/plain", Size: 4, Data: []byte{0xff, 0xfe, 0x00, 0x01}},
		{Name: "ok.txt", MIMEType: "text/plain", Size: 5, Data: []byte("hello")},
	}

	job, docs, err := svc.IngestDocuments(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Len(t, docs, 1)
	assert.NotEmpty(t, job.Metadata["errors"])
	require.Len(t, docRepo.documents, 1)
}

func TestIngestDocumentsAllFilesFailed(t *testing.T) {
	jobRepo := newMockJobRepo()
	svc := newTestIngestion(newMockDocumentRepo(), jobRepo, &mockEmbedder{})

	files := []UploadedFile{
		{Name: "binary.bin", MIMEType: "text/plain", Size: 2, Data: []byte{0xff, 0xfe}},
	}

	job, docs, err := svc.IngestDocuments(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Empty(t, docs)
}

func TestIngestDocumentsChunkSizeFollowsMIME(t *testing.T) {
	docRepo := newMockDocumentRepo()
	svc := newTestIngestion(docRepo, newMockJobRepo(), &mockEmbedder{})

	// 900 chars of markdown chunk at 500: two chunks. The same text as
	// an unknown type chunks at 750: two chunks with a different split.
	text := strings.Repeat("b", 900)
	_, _, err := svc.IngestDocuments(context.Background(), []UploadedFile{
		{Name: "doc.md", MIMEType: "text/markdown", Size: 900, Data: []byte(text)},
	})
	require.NoError(t, err)

	require.Len(t, docRepo.chunks, 2)
	assert.Len(t, docRepo.chunks[0].Content, 500)
	assert.Len(t, docRepo.chunks[1].Content, 500)
}
