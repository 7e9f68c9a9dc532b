package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orglens/orglens-engine/pkg/database"
	"github.com/orglens/orglens-engine/pkg/models"
)

// QueryHistoryRepository provides data access for the append-only query
// log.
type QueryHistoryRepository interface {
	Create(ctx context.Context, entry *models.QueryLogEntry) error
	List(ctx context.Context, limit int, sessionID string) ([]*models.QueryLogEntry, error)
}

type queryHistoryRepository struct {
	db *database.DB
}

// NewQueryHistoryRepository creates a query history repository.
func NewQueryHistoryRepository(db *database.DB) QueryHistoryRepository {
	return &queryHistoryRepository{db: db}
}

var _ QueryHistoryRepository = (*queryHistoryRepository)(nil)

func (r *queryHistoryRepository) Create(ctx context.Context, entry *models.QueryLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	const query = `
		INSERT INTO query_history (id, question, query_type, response_time_ms, session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.Question, entry.QueryType, entry.ResponseTimeMs, entry.SessionID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create query log entry: %w", err)
	}

	return nil
}

func (r *queryHistoryRepository) List(ctx context.Context, limit int, sessionID string) ([]*models.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, question, query_type, response_time_ms, session_id, created_at
		FROM query_history`
	args := []any{limit}

	if sessionID != "" {
		query += ` WHERE session_id = $2`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueryLogEntry
	for rows.Next() {
		var e models.QueryLogEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.QueryType, &e.ResponseTimeMs, &e.SessionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate query history: %w", err)
	}

	return entries, nil
}
