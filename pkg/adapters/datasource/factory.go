package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewIntrospector creates a schema introspector for the given database
// type. Returns an error for unsupported types.
func NewIntrospector(ctx context.Context, dbType, connString string, logger *zap.Logger) (Introspector, error) {
	switch dbType {
	case TypePostgres:
		return NewPostgresIntrospector(ctx, connString, logger)
	case TypeSQLite:
		return NewSQLiteIntrospector(connString, logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", dbType)
	}
}

// NewQueryExecutor creates a query executor for the given database type.
func NewQueryExecutor(ctx context.Context, dbType, connString string, logger *zap.Logger) (QueryExecutor, error) {
	switch dbType {
	case TypePostgres:
		return NewPostgresExecutor(ctx, connString, logger)
	case TypeSQLite:
		return NewSQLiteExecutor(connString, logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", dbType)
	}
}
