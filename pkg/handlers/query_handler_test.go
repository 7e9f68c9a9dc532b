package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func queryMux(t *testing.T, ts *testServices) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewQueryHandler(ts.engine, ts.history, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func postQuery(t *testing.T, mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	ts := newTestServices(nil)
	require.NoError(t, ts.registerDatasource())
	mux := queryMux(t, ts)

	rec := postQuery(t, mux, `{"question": "show all employees"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success   bool            `json:"success"`
		Result    json.RawMessage `json:"result"`
		QueryType string          `json:"queryType"`
		CacheHit  bool            `json:"cacheHit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.Equal(t, "structured", envelope.QueryType)
	assert.False(t, envelope.CacheHit)

	var result struct {
		Type           string           `json:"type"`
		SQL            string           `json:"sql"`
		StructuredRows []map[string]any `json:"structuredRows"`
		Source         string           `json:"source"`
	}
	require.NoError(t, json.Unmarshal(envelope.Result, &result))
	assert.Equal(t, "structured", result.Type)
	assert.Equal(t, "SELECT name FROM employees", result.SQL)
	assert.Equal(t, "database", result.Source)
	require.Len(t, result.StructuredRows, 1)
}

func TestQueryEndpointCacheHit(t *testing.T) {
	ts := newTestServices(nil)
	require.NoError(t, ts.registerDatasource())
	mux := queryMux(t, ts)

	first := postQuery(t, mux, `{"question": "show all employees"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := postQuery(t, mux, `{"question": "  Show All Employees "}`)
	require.Equal(t, http.StatusOK, second.Code)

	var envelope struct {
		CacheHit  bool   `json:"cacheHit"`
		QueryType string `json:"queryType"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &envelope))
	assert.True(t, envelope.CacheHit)
	assert.Equal(t, "cache_hit", envelope.QueryType)
}

func TestQueryEndpointEmptyQuestion(t *testing.T) {
	ts := newTestServices(nil)
	mux := queryMux(t, ts)

	rec := postQuery(t, mux, `{"question": "   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestQueryEndpointInvalidJSON(t *testing.T) {
	ts := newTestServices(nil)
	mux := queryMux(t, ts)

	rec := postQuery(t, mux, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	ts := newTestServices(nil)
	mux := queryMux(t, ts)

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServices(nil)
	require.NoError(t, ts.registerDatasource())
	mux := queryMux(t, ts)

	for _, q := range []string{"count employees", "list departments"} {
		body, _ := json.Marshal(map[string]string{"question": q})
		rec := postQuery(t, mux, string(bytes.TrimSpace(body)))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/query/history", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		History []struct {
			Question  string `json:"question"`
			QueryType string `json:"query_type"`
		} `json:"history"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.History, 2)
	// Most recent first.
	assert.Equal(t, "list departments", resp.History[0].Question)
}

func TestHistoryEndpointBadLimit(t *testing.T) {
	ts := newTestServices(nil)
	mux := queryMux(t, ts)

	req := httptest.NewRequest(http.MethodGet, "/api/query/history?limit=zero", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
