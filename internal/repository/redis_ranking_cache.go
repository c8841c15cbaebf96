package repository

import (
	"context"
	"errors"
	"fmt"

	"CardPull/internal/domain/models"
	domrepo "CardPull/internal/domain/repository"
	"CardPull/pkg/cache"
	applogger "CardPull/pkg/logger"
)

const rankingCacheKey = "ranking:latest"

// RedisRankingCache keeps the latest ranking document in the cache
// layer so external readers avoid a ClickHouse round-trip. The entry
// never expires; it is only ever replaced by the next predict run.
type RedisRankingCache struct {
	cache cache.Service
	l     *applogger.Logger
}

func NewRedisRankingCache(c cache.Service) *RedisRankingCache {
	return &RedisRankingCache{cache: c}
}

// SetLogger injects a structured logger.
func (r *RedisRankingCache) SetLogger(l *applogger.Logger) { r.l = l }

func (r *RedisRankingCache) SetLatest(ctx context.Context, snap *models.RankingSnapshot) error {
	if err := r.cache.Set(ctx, rankingCacheKey, snap, 0); err != nil {
		return fmt.Errorf("cache ranking: %w", err)
	}
	if r.l != nil {
		r.l.Debug("ranking cached",
			applogger.String("key", rankingCacheKey),
			applogger.Int("top_up", len(snap.TopUp)),
		)
	}
	return nil
}

// GetLatest reads the cached ranking, returning nil on a miss.
func (r *RedisRankingCache) GetLatest(ctx context.Context) (*models.RankingSnapshot, error) {
	var snap models.RankingSnapshot
	err := r.cache.Get(ctx, rankingCacheKey, &snap)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

var _ domrepo.RankingCache = (*RedisRankingCache)(nil)
