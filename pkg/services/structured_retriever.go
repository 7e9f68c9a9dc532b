package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/adapters/datasource"
	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/models"
	sqlvalidation "github.com/orglens/orglens-engine/pkg/sql"
)

// ExecutorFactory opens a query executor against a registered datasource.
// Injectable so tests can substitute an in-memory executor.
type ExecutorFactory func(ctx context.Context, dbType, connString string, logger *zap.Logger) (datasource.QueryExecutor, error)

// StructuredResult is the outcome of the tabular retrieval path.
type StructuredResult struct {
	SQL      string
	Rows     []models.Row
	Degraded bool
}

// StructuredRetriever answers questions against the registered relational
// datasource: synthesize SQL, vet it, then execute with a row cap.
type StructuredRetriever struct {
	synthesizer *Synthesizer
	schemas     SchemaProvider
	newExecutor ExecutorFactory
	maxRows     int
	logger      *zap.Logger
}

// SchemaProvider supplies the latest discovered schema snapshot.
type SchemaProvider interface {
	Latest(ctx context.Context) (*models.SchemaSnapshot, error)
}

// NewStructuredRetriever creates the tabular retrieval path.
func NewStructuredRetriever(synthesizer *Synthesizer, schemas SchemaProvider, newExecutor ExecutorFactory, maxRows int, logger *zap.Logger) *StructuredRetriever {
	if newExecutor == nil {
		newExecutor = datasource.NewQueryExecutor
	}
	return &StructuredRetriever{
		synthesizer: synthesizer,
		schemas:     schemas,
		newExecutor: newExecutor,
		maxRows:     maxRows,
		logger:      logger.Named("structured_retriever"),
	}
}

// Retrieve runs the full structured path. Synthesis failures and unsafe
// synthesized SQL both degrade to the fallback query rather than failing
// the request; an unsafe statement is never executed.
func (r *StructuredRetriever) Retrieve(ctx context.Context, question string) (*StructuredResult, error) {
	snapshot, err := r.schemas.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("no datasource registered: %w", err)
	}

	result := &StructuredResult{}

	sqlQuery, err := r.synthesizer.Synthesize(ctx, question, &snapshot.Schema)
	if err != nil {
		r.logger.Warn("Falling back to default query", zap.Error(err))
		sqlQuery = r.synthesizer.FallbackQuery(&snapshot.Schema)
		result.Degraded = true
	}

	vetted, err := r.vet(sqlQuery)
	if err != nil {
		if result.Degraded {
			return nil, err
		}
		r.logger.Warn("Rejected unsafe query, falling back to default",
			zap.Error(err),
			zap.String("sql", sqlQuery))
		result.Degraded = true
		vetted, err = r.vet(r.synthesizer.FallbackQuery(&snapshot.Schema))
		if err != nil {
			return nil, err
		}
	}
	result.SQL = vetted

	executor, err := r.newExecutor(ctx, snapshot.DatabaseType, snapshot.ConnectionString, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}
	defer executor.Close()

	rows, err := executor.Execute(ctx, vetted, r.maxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	result.Rows = rows

	r.logger.Info("Structured retrieval complete",
		zap.String("sql", vetted),
		zap.Int("rows", len(rows)),
		zap.Bool("degraded", result.Degraded))
	return result, nil
}

// vet normalizes the statement and rejects anything that is not a single
// read-only SELECT.
func (r *StructuredRetriever) vet(sqlQuery string) (string, error) {
	validation := sqlvalidation.ValidateAndNormalize(sqlQuery)
	if validation.Error != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUnsafeQuery, validation.Error)
	}
	if validation.NormalizedSQL == "" {
		return "", fmt.Errorf("%w: empty statement", apperrors.ErrUnsafeQuery)
	}

	stmtType := sqlvalidation.DetectStatementType(validation.NormalizedSQL)
	if !sqlvalidation.IsReadOnly(stmtType) {
		return "", fmt.Errorf("%w: %s statements are not allowed", apperrors.ErrUnsafeQuery, stmtType)
	}

	return validation.NormalizedSQL, nil
}
