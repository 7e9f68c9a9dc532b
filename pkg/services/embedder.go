package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/llm"
	"github.com/orglens/orglens-engine/pkg/retry"
)

// EmbeddingResult carries one chunk's vector. Placeholder vectors are
// zero-valued and excluded from similarity search downstream.
type EmbeddingResult struct {
	Embedding   []float32
	Placeholder bool
}

// Embedder turns text into vectors for semantic retrieval.
type Embedder interface {
	EmbedChunks(ctx context.Context, chunks []string) ([]EmbeddingResult, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type llmEmbedder struct {
	client     llm.CompletionClient
	logger     *zap.Logger
	model      string
	batchSize  int
	dimensions int
	retryCfg   *retry.Config
}

// NewEmbedder creates an embedder backed by the completion service. An
// empty model falls back to the client's default embedding model.
func NewEmbedder(client llm.CompletionClient, model string, batchSize, dimensions int, logger *zap.Logger) Embedder {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &llmEmbedder{
		client:     client,
		logger:     logger.Named("embedder"),
		model:      model,
		batchSize:  batchSize,
		dimensions: dimensions,
		retryCfg:   retry.DefaultConfig(),
	}
}

var _ Embedder = (*llmEmbedder)(nil)

// EmbedChunks embeds chunks in fixed-size batches. A batch that still
// fails after retries degrades to placeholder vectors for its members;
// other batches are unaffected. The returned slice always has one entry
// per input chunk, in order.
func (e *llmEmbedder) EmbedChunks(ctx context.Context, chunks []string) ([]EmbeddingResult, error) {
	results := make([]EmbeddingResult, 0, len(chunks))

	for start := 0; start < len(chunks); start += e.batchSize {
		end := start + e.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := retry.DoWithResult(ctx, e.retryCfg, func() ([][]float32, error) {
			return e.client.CreateEmbeddings(ctx, batch, e.model)
		})
		if err != nil {
			e.logger.Warn("Embedding batch failed, storing placeholders",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			for range batch {
				results = append(results, EmbeddingResult{
					Embedding:   make([]float32, e.dimensions),
					Placeholder: true,
				})
			}
			continue
		}

		for _, vec := range vectors {
			results = append(results, EmbeddingResult{Embedding: vec})
		}
	}

	return results, nil
}

// EmbedQuery embeds a single question. Unlike chunk ingestion there is no
// placeholder fallback; a failure here surfaces to the caller.
func (e *llmEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := retry.DoWithResult(ctx, e.retryCfg, func() ([]float32, error) {
		return e.client.CreateEmbedding(ctx, text, e.model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vec, nil
}
