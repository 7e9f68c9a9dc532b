package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orglens/orglens-engine/pkg/database"
	"github.com/orglens/orglens-engine/pkg/models"
)

// CacheRepository provides data access for the query cache.
// The store is the single source of truth; expired entries are treated
// as absent on read and reclaimed lazily.
type CacheRepository interface {
	// Get returns the live entry for a key, or (nil, nil) when the key
	// is absent or expired.
	Get(ctx context.Context, key string) (*models.QueryResponse, error)

	// Upsert fully replaces any prior entry for the key.
	Upsert(ctx context.Context, key string, response *models.QueryResponse, expiresAt time.Time) error

	// PruneExpired removes entries past their expiry, returning the
	// number reclaimed.
	PruneExpired(ctx context.Context) (int64, error)
}

type cacheRepository struct {
	db *database.DB
}

// NewCacheRepository creates a cache repository.
func NewCacheRepository(db *database.DB) CacheRepository {
	return &cacheRepository{db: db}
}

var _ CacheRepository = (*cacheRepository)(nil)

func (r *cacheRepository) Get(ctx context.Context, key string) (*models.QueryResponse, error) {
	const query = `
		SELECT response FROM query_cache
		WHERE cache_key = $1 AND expires_at > now()`

	var payload []byte
	err := r.db.QueryRow(ctx, query, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var response models.QueryResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("failed to decode cached response: %w", err)
	}

	return &response, nil
}

func (r *cacheRepository) Upsert(ctx context.Context, key string, response *models.QueryResponse, expiresAt time.Time) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	const query = `
		INSERT INTO query_cache (cache_key, response, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE
		SET response = EXCLUDED.response, expires_at = EXCLUDED.expires_at`

	if _, err := r.db.Exec(ctx, query, key, payload, expiresAt); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

func (r *cacheRepository) PruneExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM query_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
