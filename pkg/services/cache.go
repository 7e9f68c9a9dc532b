package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/models"
	"github.com/orglens/orglens-engine/pkg/repositories"
)

// CacheKey derives the cache key for a question. Keys are
// case-insensitive and whitespace-trimmed so trivially restated
// questions share an entry.
func CacheKey(question string) string {
	return "query:" + strings.ToLower(strings.TrimSpace(question))
}

// QueryCache stores full query responses keyed by normalized question.
type QueryCache struct {
	repo   repositories.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewQueryCache creates a response cache with the given entry lifetime.
func NewQueryCache(repo repositories.CacheRepository, ttl time.Duration, logger *zap.Logger) *QueryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QueryCache{
		repo:   repo,
		ttl:    ttl,
		logger: logger.Named("query_cache"),
	}
}

// Get returns the cached response for a question, or nil on a miss.
// Cache failures are logged and treated as misses so the engine always
// stays answerable.
func (c *QueryCache) Get(ctx context.Context, question string) *models.QueryResponse {
	key := CacheKey(question)

	response, err := c.repo.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return response
}

// Put stores a response under the question's key with the configured TTL.
// Failures are logged and swallowed.
func (c *QueryCache) Put(ctx context.Context, question string, response *models.QueryResponse) {
	key := CacheKey(question)

	if err := c.repo.Upsert(ctx, key, response, time.Now().UTC().Add(c.ttl)); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// PruneExpired reclaims expired entries once, returning the number
// removed. Reads already treat expired entries as absent, so this only
// reclaims storage.
func (c *QueryCache) PruneExpired(ctx context.Context) (int64, error) {
	return c.repo.PruneExpired(ctx)
}

// RunPruner reclaims expired entries every interval until ctx is
// cancelled. Prune failures are logged and the loop keeps going.
func (c *QueryCache) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := c.PruneExpired(ctx)
			if err != nil {
				c.logger.Warn("Cache prune failed", zap.Error(err))
				continue
			}
			if pruned > 0 {
				c.logger.Debug("Pruned expired cache entries", zap.Int64("count", pruned))
			}
		}
	}
}
