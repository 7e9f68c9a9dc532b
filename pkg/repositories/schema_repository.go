package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orglens/orglens-engine/pkg/apperrors"
	"github.com/orglens/orglens-engine/pkg/database"
	"github.com/orglens/orglens-engine/pkg/models"
)

// SchemaRepository persists discovered schema snapshots. The most recent
// snapshot is authoritative for query synthesis and execution.
type SchemaRepository interface {
	SaveSnapshot(ctx context.Context, jobID uuid.UUID, snapshot *models.SchemaSnapshot) error
	Latest(ctx context.Context) (*models.SchemaSnapshot, error)
}

type schemaRepository struct {
	db *database.DB
}

// NewSchemaRepository creates a schema snapshot repository.
func NewSchemaRepository(db *database.DB) SchemaRepository {
	return &schemaRepository{db: db}
}

var _ SchemaRepository = (*schemaRepository)(nil)

func (r *schemaRepository) SaveSnapshot(ctx context.Context, jobID uuid.UUID, snapshot *models.SchemaSnapshot) error {
	schemaJSON, err := json.Marshal(snapshot.Schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema snapshot: %w", err)
	}

	const query = `
		INSERT INTO database_schemas (job_id, schema_data, database_type, connection_string)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err = r.db.QueryRow(ctx, query, jobID, schemaJSON, snapshot.DatabaseType, snapshot.ConnectionString).
		Scan(&snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save schema snapshot: %w", err)
	}

	return nil
}

func (r *schemaRepository) Latest(ctx context.Context) (*models.SchemaSnapshot, error) {
	const query = `
		SELECT schema_data, database_type, connection_string, created_at
		FROM database_schemas
		ORDER BY created_at DESC
		LIMIT 1`

	var (
		schemaJSON []byte
		snapshot   models.SchemaSnapshot
	)
	err := r.db.QueryRow(ctx, query).
		Scan(&schemaJSON, &snapshot.DatabaseType, &snapshot.ConnectionString, &snapshot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema snapshot: %w", err)
	}

	if err := json.Unmarshal(schemaJSON, &snapshot.Schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema snapshot: %w", err)
	}

	return &snapshot, nil
}
