package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// SemanticRetriever answers questions against ingested documents by
// cosine similarity over stored chunk embeddings.
type SemanticRetriever struct {
	documents repositories.DocumentRepository
	embedder  Embedder
	topK      int
	logger    *zap.Logger
}

// NewSemanticRetriever creates the document retrieval path.
func NewSemanticRetriever(documents repositories.DocumentRepository, embedder Embedder, topK int, logger *zap.Logger) *SemanticRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &SemanticRetriever{
		documents: documents,
		embedder:  embedder,
		topK:      topK,
		logger:    logger.Named("semantic_retriever"),
	}
}

// Retrieve embeds the question and ranks all searchable chunks by cosine
// similarity, returning the top passages in descending score order. Ties
// break by ascending chunk index so results are deterministic.
func (r *SemanticRetriever) Retrieve(ctx context.Context, question string) ([]models.ScoredPassage, error) {
	queryVec, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	chunks, err := r.documents.ListSearchableChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document chunks: %w", err)
	}

	passages := make([]models.ScoredPassage, 0, len(chunks))
	for _, chunk := range chunks {
		score := cosineSimilarity(queryVec, chunk.Embedding)
		passages = append(passages, models.ScoredPassage{
			DocumentID:     chunk.DocumentID,
			FileName:       chunk.FileName,
			ChunkIndex:     chunk.ChunkIndex,
			Content:        chunk.Content,
			RelevanceScore: clampScore(score),
		})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].RelevanceScore != passages[j].RelevanceScore {
			return passages[i].RelevanceScore > passages[j].RelevanceScore
		}
		return passages[i].ChunkIndex < passages[j].ChunkIndex
	})

	if len(passages) > r.topK {
		passages = passages[:r.topK]
	}

	r.logger.Debug("Semantic retrieval complete",
		zap.Int("candidates", len(chunks)),
		zap.Int("returned", len(passages)))
	return passages, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// clampScore bounds a similarity to [0, 1] so floating point drift never
// leaks out in API responses.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
