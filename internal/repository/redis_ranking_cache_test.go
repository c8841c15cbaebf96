package repository

import (
	"context"
	"testing"
	"time"

	"CardPull/internal/domain/models"
	"CardPull/pkg/cache"
)

func TestRankingCacheRoundTrip(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	rc := NewRedisRankingCache(mem)
	ctx := context.Background()

	snap := &models.RankingSnapshot{
		AsOfDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TopUp:    []string{"a", "b"},
		TopDown:  []string{"b", "a"},
		ByTier: map[string]models.TierRanking{
			models.TierMid: {TopUp: []string{"a"}, TopDown: []string{"a"}},
		},
		Meta: models.RankingMeta{HorizonDays: 28, TopN: 120},
	}
	if err := rc.SetLatest(ctx, snap); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := rc.GetLatest(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("expected cached ranking")
	}
	if len(got.TopUp) != 2 || got.TopUp[0] != "a" {
		t.Fatalf("top_up lost: %v", got.TopUp)
	}
	if got.Meta.TopN != 120 {
		t.Fatalf("meta lost: %+v", got.Meta)
	}
	if _, ok := got.ByTier[models.TierMid]; !ok {
		t.Fatalf("per-tier block lost")
	}
}

func TestRankingCacheMissIsNil(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	rc := NewRedisRankingCache(mem)

	got, err := rc.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil on miss, got %+v", got)
	}
}
