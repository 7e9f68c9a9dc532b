package datasource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/models"
)

// PostgresIntrospector discovers schema from a PostgreSQL datasource.
type PostgresIntrospector struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresIntrospector connects to a PostgreSQL datasource for
// schema discovery.
func NewPostgresIntrospector(ctx context.Context, connString string, logger *zap.Logger) (*PostgresIntrospector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresIntrospector{pool: pool, logger: logger}, nil
}

// TestConnection implements Introspector.
func (d *PostgresIntrospector) TestConnection(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close implements Introspector.
func (d *PostgresIntrospector) Close() error {
	d.pool.Close()
	return nil
}

// Tables implements Introspector. Row counts come from pg_class
// statistics rather than COUNT(*) so discovery stays cheap on large
// tables.
func (d *PostgresIntrospector) Tables(ctx context.Context) ([]models.TableDescription, error) {
	const query = `
		SELECT
			t.table_name,
			COALESCE(c.reltuples::bigint, 0) as row_count
		FROM information_schema.tables t
		LEFT JOIN pg_class c ON c.relname = t.table_name
		LEFT JOIN pg_namespace n ON n.oid = c.relnamespace AND n.nspname = t.table_schema
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_name
	`

	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []models.TableDescription
	for rows.Next() {
		var t models.TableDescription
		if err := rows.Scan(&t.Name, &t.RowCount); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	for i := range tables {
		columns, err := d.columns(ctx, tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("discover columns for %s: %w", tables[i].Name, err)
		}
		tables[i].Columns = columns
	}

	return tables, nil
}

// columns returns the columns for one table in declaration order.
// Uses pg_index for primary key detection, which correctly identifies
// primary keys even when created as unique indexes (common with ORMs).
func (d *PostgresIntrospector) columns(ctx context.Context, tableName string) ([]models.ColumnDescription, error) {
	const query = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' as is_nullable,
			COALESCE(pk.is_pk, false) as is_primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT a.attname as column_name, true as is_pk
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE ix.indisprimary = true
			  AND n.nspname = 'public'
			  AND t.relname = $1
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	rows, err := d.pool.Query(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []models.ColumnDescription
	for rows.Next() {
		var c models.ColumnDescription
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// ForeignKeys implements Introspector.
func (d *PostgresIntrospector) ForeignKeys(ctx context.Context) ([]models.Relationship, error) {
	const query = `
		SELECT
			kcu.table_name as source_table,
			kcu.column_name as source_column,
			ccu.table_name as target_table,
			ccu.column_name as target_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
	`

	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		var srcTable, srcCol, dstTable, dstCol string
		if err := rows.Scan(&srcTable, &srcCol, &dstTable, &dstCol); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		rels = append(rels, models.Relationship{
			From:        srcTable + "." + srcCol,
			To:          dstTable + "." + dstCol,
			Cardinality: "many-to-one",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	return rels, nil
}

// PostgresExecutor runs validated read-only SQL against a PostgreSQL
// datasource.
type PostgresExecutor struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresExecutor connects to a PostgreSQL datasource for query
// execution.
func NewPostgresExecutor(ctx context.Context, connString string, logger *zap.Logger) (*PostgresExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresExecutor{pool: pool, logger: logger}, nil
}

// Execute implements QueryExecutor. The row cap is enforced by wrapping
// the query in a bounded subselect; callers have already validated the
// statement is read-only.
func (e *PostgresExecutor) Execute(ctx context.Context, sqlQuery string, limit int) ([]models.Row, error) {
	bounded := boundQuery(sqlQuery, limit)

	rows, err := e.pool.Query(ctx, bounded)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var result []models.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// Close implements QueryExecutor.
func (e *PostgresExecutor) Close() error {
	e.pool.Close()
	return nil
}

// boundQuery wraps a query so at most limit rows come back regardless
// of what the synthesized SQL asked for.
func boundQuery(sqlQuery string, limit int) string {
	if limit <= 0 {
		return sqlQuery
	}
	return fmt.Sprintf("SELECT * FROM (%s) bounded_scan LIMIT %d", sqlQuery, limit)
}
