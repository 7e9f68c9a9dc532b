package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/models"
)

func documentsMux(ts *testServices) *http.ServeMux {
	mux := http.NewServeMux()
	NewDocumentsHandler(ts.documents, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func seedDocument(t *testing.T, ts *testServices) *models.Document {
	t.Helper()
	doc := &models.Document{
		ID:         uuid.New(),
		FileName:   "handbook.txt",
		FileType:   "text/plain",
		FileSize:   128,
		Content:    "remote work is allowed two days a week",
		ChunkCount: 1,
	}
	require.NoError(t, ts.docRepo.CreateDocument(context.Background(), doc))
	return doc
}

func TestDocumentEndpoint(t *testing.T) {
	ts := newTestServices(nil)
	doc := seedDocument(t, ts)
	mux := documentsMux(ts)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+doc.ID.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool `json:"success"`
		Document struct {
			ID         string `json:"id"`
			FileName   string `json:"fileName"`
			ChunkCount int    `json:"chunkCount"`
			Content    string `json:"content"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, doc.ID.String(), resp.Document.ID)
	assert.Equal(t, "handbook.txt", resp.Document.FileName)
	assert.Equal(t, 1, resp.Document.ChunkCount)
	assert.Empty(t, resp.Document.Content, "extracted content must not leave the server")
}

func TestDocumentEndpointNotFound(t *testing.T) {
	ts := newTestServices(nil)
	mux := documentsMux(ts)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "document not found", body["error"])
}

func TestDocumentEndpointMalformedID(t *testing.T) {
	ts := newTestServices(nil)
	mux := documentsMux(ts)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	ts := newTestServices(nil)
	doc := seedDocument(t, ts)
	mux := documentsMux(ts)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+doc.ID.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, doc.ID.String(), body["documentId"])

	// The document is gone; a second delete reports not found.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/"+doc.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
