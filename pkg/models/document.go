package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an ingested file with its extracted text.
// Created once by the ingestion pipeline and never mutated.
type Document struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	Content    string    `json:"content,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentChunk is one overlapping window of a document's text together
// with its embedding vector. ChunkIndex is contiguous from 0 within a
// document.
type DocumentChunk struct {
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`

	// Placeholder marks chunks whose embedding call failed after retries
	// and was substituted with a zero vector. Placeholder chunks are
	// excluded from similarity search.
	Placeholder bool `json:"placeholder,omitempty"`
}
