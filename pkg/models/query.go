package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryKind labels which retrieval path produced a response.
type QueryKind string

const (
	QueryKindStructured   QueryKind = "structured"
	QueryKindUnstructured QueryKind = "unstructured"
	QueryKindHybrid       QueryKind = "hybrid"
)

// Row is a single result row from the structured store.
type Row map[string]any

// ScoredPassage is a document chunk with its relevance to a question.
// Passages are ordered by descending score, ties broken by chunk index.
type ScoredPassage struct {
	DocumentID     uuid.UUID `json:"document_id"`
	FileName       string    `json:"file_name"`
	ChunkIndex     int       `json:"chunk_index"`
	Content        string    `json:"content"`
	RelevanceScore float64   `json:"relevance_score"`
}

// QueryResponse is the envelope returned by the query engine. It is
// exactly what gets cached: structured rows, semantic passages, or both
// for hybrid questions.
type QueryResponse struct {
	Kind             QueryKind       `json:"type"`
	SQL              string          `json:"sql,omitempty"`
	StructuredRows   []Row           `json:"structuredRows,omitempty"`
	SemanticPassages []ScoredPassage `json:"semanticPassages,omitempty"`
	Source           string          `json:"source"`

	// Degraded is set when a fallback path was taken internally
	// (synthesis unavailable, unsafe query rejected, embedding failure).
	// The request still succeeds; the flag exists for observability.
	Degraded bool `json:"degraded,omitempty"`
}

// Source labels for the response envelope.
const (
	SourceDatabase  = "database"
	SourceDocuments = "documents"
	SourceHybrid    = "database+documents"
)

// CacheEntry is a cached query response with its expiry. At most one
// live entry exists per key; writes are upserts.
type CacheEntry struct {
	CacheKey  string        `json:"cache_key"`
	Response  QueryResponse `json:"response"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// QueryLogEntry records one processed question. Entries are append-only;
// the engine never mutates or deletes them.
type QueryLogEntry struct {
	ID             uuid.UUID `json:"id"`
	Question       string    `json:"question"`
	QueryType      string    `json:"query_type"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	SessionID      *string   `json:"session_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
