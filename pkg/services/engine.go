package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/models"
	sqlvalidation "github.com/orglens/orglens-engine/pkg/sql"
)

// QueryTypeCacheHit is reported instead of the classified kind when a
// response is served from cache.
const QueryTypeCacheHit = "cache_hit"

// QueryResult wraps a response with the request-level bookkeeping the
// API reports alongside it.
type QueryResult struct {
	Response       *models.QueryResponse
	ResponseTimeMs int
	CacheHit       bool
	QueryType      string
}

// HistoryRecorder logs answered questions. Recording is best-effort.
type HistoryRecorder interface {
	Record(ctx context.Context, entry *models.QueryLogEntry)
}

// Engine orchestrates a question end to end: cache lookup,
// classification, retrieval, fusion, caching and history.
type Engine struct {
	classifier *Classifier
	cache      *QueryCache
	structured *StructuredRetriever
	semantic   *SemanticRetriever
	history    HistoryRecorder
	logger     *zap.Logger
}

// NewEngine creates the query engine.
func NewEngine(
	classifier *Classifier,
	cache *QueryCache,
	structured *StructuredRetriever,
	semantic *SemanticRetriever,
	history HistoryRecorder,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		classifier: classifier,
		cache:      cache,
		structured: structured,
		semantic:   semantic,
		history:    history,
		logger:     logger.Named("engine"),
	}
}

// Query answers a natural-language question.
func (e *Engine) Query(ctx context.Context, question, sessionID string) (*QueryResult, error) {
	started := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", apperrors.ErrValidation)
	}
	if check := sqlvalidation.CheckForInjection(question); check != nil && check.IsSQLi {
		e.logger.Warn("Rejected question with injection payload",
			zap.String("fingerprint", check.Fingerprint))
		return nil, fmt.Errorf("%w: question contains a SQL injection pattern", apperrors.ErrValidation)
	}

	if cached := e.cache.Get(ctx, question); cached != nil {
		result := &QueryResult{
			Response:       cached,
			ResponseTimeMs: int(time.Since(started).Milliseconds()),
			CacheHit:       true,
			QueryType:      QueryTypeCacheHit,
		}
		e.record(ctx, question, QueryTypeCacheHit, result.ResponseTimeMs, sessionID)
		return result, nil
	}

	kind := e.classifier.Classify(question)
	e.logger.Info("Classified question", zap.String("kind", string(kind)))

	var (
		response *models.QueryResponse
		err      error
	)
	switch kind {
	case models.QueryKindStructured:
		response, err = e.answerStructured(ctx, question)
	case models.QueryKindUnstructured:
		response, err = e.answerUnstructured(ctx, question)
	case models.QueryKindHybrid:
		response, err = e.answerHybrid(ctx, question)
	}
	if err != nil {
		return nil, err
	}

	if !response.Degraded {
		e.cache.Put(ctx, question, response)
	}

	result := &QueryResult{
		Response:       response,
		ResponseTimeMs: int(time.Since(started).Milliseconds()),
		QueryType:      string(kind),
	}
	e.record(ctx, question, string(kind), result.ResponseTimeMs, sessionID)
	return result, nil
}

func (e *Engine) answerStructured(ctx context.Context, question string) (*models.QueryResponse, error) {
	structured, err := e.structured.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	return &models.QueryResponse{
		Kind:           models.QueryKindStructured,
		SQL:            structured.SQL,
		StructuredRows: structured.Rows,
		Source:         models.SourceDatabase,
		Degraded:       structured.Degraded,
	}, nil
}

func (e *Engine) answerUnstructured(ctx context.Context, question string) (*models.QueryResponse, error) {
	passages, err := e.semantic.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	return &models.QueryResponse{
		Kind:             models.QueryKindUnstructured,
		SemanticPassages: passages,
		Source:           models.SourceDocuments,
	}, nil
}

// answerHybrid runs both retrieval paths concurrently. A single failed
// path degrades the response to the surviving side; the request only
// fails when both paths fail.
func (e *Engine) answerHybrid(ctx context.Context, question string) (*models.QueryResponse, error) {
	var (
		wg            sync.WaitGroup
		structured    *StructuredResult
		structuredErr error
		passages      []models.ScoredPassage
		semanticErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		structured, structuredErr = e.structured.Retrieve(ctx, question)
	}()
	go func() {
		defer wg.Done()
		passages, semanticErr = e.semantic.Retrieve(ctx, question)
	}()
	wg.Wait()

	if structuredErr != nil && semanticErr != nil {
		return nil, fmt.Errorf("hybrid retrieval failed: %w", structuredErr)
	}

	response := MergeResults(structured, passages)
	if structuredErr != nil {
		e.logger.Warn("Hybrid structured path failed", zap.Error(structuredErr))
		response.Source = models.SourceDocuments
		response.Degraded = true
	}
	if semanticErr != nil {
		e.logger.Warn("Hybrid semantic path failed", zap.Error(semanticErr))
		response.Source = models.SourceDatabase
		response.SemanticPassages = nil
		response.Degraded = true
	}
	return response, nil
}

func (e *Engine) record(ctx context.Context, question, queryType string, responseTimeMs int, sessionID string) {
	if e.history == nil {
		return
	}
	entry := &models.QueryLogEntry{
		Question:       question,
		QueryType:      queryType,
		ResponseTimeMs: int64(responseTimeMs),
	}
	if sessionID != "" {
		entry.SessionID = &sessionID
	}
	e.history.Record(ctx, entry)
}
