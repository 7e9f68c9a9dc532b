package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/orglens/orglens-engine/pkg/models"
)

// SQLiteIntrospector discovers schema from a SQLite datasource using
// PRAGMA metadata.
type SQLiteIntrospector struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteIntrospector opens a SQLite database file for schema
// discovery.
func NewSQLiteIntrospector(connString string, logger *zap.Logger) (*SQLiteIntrospector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", connString)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &SQLiteIntrospector{db: db, logger: logger}, nil
}

// TestConnection implements Introspector.
func (d *SQLiteIntrospector) TestConnection(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	// sql.Open is lazy and Ping succeeds for a nonexistent path, so
	// probe the catalog to prove the file is a readable database.
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master`).Scan(&n); err != nil {
		return fmt.Errorf("read sqlite catalog: %w", err)
	}
	return nil
}

// Close implements Introspector.
func (d *SQLiteIntrospector) Close() error {
	return d.db.Close()
}

// Tables implements Introspector.
func (d *SQLiteIntrospector) Tables(ctx context.Context) ([]models.TableDescription, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	tables := make([]models.TableDescription, 0, len(names))
	for _, name := range names {
		columns, err := d.columns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("discover columns for %s: %w", name, err)
		}

		var rowCount int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(name))
		if err := d.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
			return nil, fmt.Errorf("count rows for %s: %w", name, err)
		}

		tables = append(tables, models.TableDescription{
			Name:     name,
			Columns:  columns,
			RowCount: rowCount,
		})
	}

	return tables, nil
}

// columns reads PRAGMA table_info for one table.
func (d *SQLiteIntrospector) columns(ctx context.Context, tableName string) ([]models.ColumnDescription, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, fmt.Errorf("pragma table_info: %w", err)
	}
	defer rows.Close()

	var columns []models.ColumnDescription
	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, models.ColumnDescription{
			Name:      name,
			DataType:  dataType,
			Nullable:  notNull == 0,
			IsPrimary: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// ForeignKeys implements Introspector using PRAGMA foreign_key_list.
func (d *SQLiteIntrospector) ForeignKeys(ctx context.Context) ([]models.Relationship, error) {
	tables, err := d.Tables(ctx)
	if err != nil {
		return nil, err
	}

	var rels []models.Relationship
	for _, t := range tables {
		rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(t.Name)))
		if err != nil {
			return nil, fmt.Errorf("pragma foreign_key_list for %s: %w", t.Name, err)
		}

		for rows.Next() {
			var (
				id, seq            int
				target, from, to   string
				onUpdate, onDelete string
				match              string
			)
			if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan foreign key: %w", err)
			}
			rels = append(rels, models.Relationship{
				From:        t.Name + "." + from,
				To:          target + "." + to,
				Cardinality: "many-to-one",
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate foreign keys: %w", err)
		}
		rows.Close()
	}

	return rels, nil
}

// SQLiteExecutor runs validated read-only SQL against a SQLite
// datasource.
type SQLiteExecutor struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteExecutor opens a SQLite database file for query execution.
func NewSQLiteExecutor(connString string, logger *zap.Logger) (*SQLiteExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", connString)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &SQLiteExecutor{db: db, logger: logger}, nil
}

// Execute implements QueryExecutor.
func (e *SQLiteExecutor) Execute(ctx context.Context, sqlQuery string, limit int) ([]models.Row, error) {
	bounded := boundQuery(sqlQuery, limit)

	rows, err := e.db.QueryContext(ctx, bounded)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var result []models.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			// database/sql yields []byte for TEXT affinity; normalize
			// to string so JSON encoding stays readable.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// Close implements QueryExecutor.
func (e *SQLiteExecutor) Close() error {
	return e.db.Close()
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
