// Package datasource provides adapters for the relational stores the
// engine can discover and query: PostgreSQL and SQLite.
package datasource

import (
	"context"

	"github.com/orglens/orglens-engine/pkg/models"
)

// Supported database types.
const (
	TypePostgres = "postgresql"
	TypeSQLite   = "sqlite"
)

// Introspector extracts schema information from a datasource.
// Each implementation owns its connection and must be closed when done.
type Introspector interface {
	// TestConnection verifies the datasource is reachable with valid
	// credentials. Returns nil if the connection is healthy.
	TestConnection(ctx context.Context) error

	// Tables returns all user tables with their columns in declaration
	// order and estimated row counts. System tables are excluded.
	Tables(ctx context.Context) ([]models.TableDescription, error)

	// ForeignKeys returns declared foreign key relationships.
	// Implementations without constraint metadata return an empty slice;
	// relationship inference from naming conventions happens upstream.
	ForeignKeys(ctx context.Context) ([]models.Relationship, error)

	// Close releases the connection.
	Close() error
}

// QueryExecutor executes validated read-only SQL against a datasource.
type QueryExecutor interface {
	// Execute runs a query and returns at most limit rows.
	Execute(ctx context.Context, sqlQuery string, limit int) ([]models.Row, error)

	// Close releases the connection.
	Close() error
}
