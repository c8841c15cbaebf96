package usecase

import (
	"reflect"
	"testing"
	"time"

	"CardPull/internal/domain/models"
)

func scoredFixture() []ScoredItem {
	return []ScoredItem{
		{ItemID: "a", Tier: models.TierLow, Q20: -0.30, Q80: 0.10},
		{ItemID: "b", Tier: models.TierLow, Q20: -0.10, Q80: 0.50},
		{ItemID: "c", Tier: models.TierMid, Q20: 0.05, Q80: 0.90},
		{ItemID: "d", Tier: models.TierMid, Q20: -0.50, Q80: 0.20},
	}
}

func TestAssembleGlobalOrdering(t *testing.T) {
	a := NewRankingAssembler(120, models.RankingMeta{HorizonDays: 28})
	snap := a.Assemble(time.Now(), scoredFixture())

	// top_up descends by q80
	if !reflect.DeepEqual(snap.TopUp, []string{"c", "b", "d", "a"}) {
		t.Fatalf("top_up: %v", snap.TopUp)
	}
	// top_down ascends by q20
	if !reflect.DeepEqual(snap.TopDown, []string{"d", "a", "b", "c"}) {
		t.Fatalf("top_down: %v", snap.TopDown)
	}
}

func TestAssemblePerTier(t *testing.T) {
	a := NewRankingAssembler(120, models.RankingMeta{})
	snap := a.Assemble(time.Now(), scoredFixture())

	low := snap.ByTier[models.TierLow]
	if !reflect.DeepEqual(low.TopUp, []string{"b", "a"}) {
		t.Fatalf("low top_up: %v", low.TopUp)
	}
	if !reflect.DeepEqual(low.TopDown, []string{"a", "b"}) {
		t.Fatalf("low top_down: %v", low.TopDown)
	}
	// high tier exists but is empty, not missing
	if high, ok := snap.ByTier[models.TierHigh]; !ok || len(high.TopUp) != 0 {
		t.Fatalf("high tier should be present and empty")
	}
}

func TestAssembleTruncatesToTopN(t *testing.T) {
	a := NewRankingAssembler(2, models.RankingMeta{})
	snap := a.Assemble(time.Now(), scoredFixture())
	if len(snap.TopUp) != 2 || len(snap.TopDown) != 2 {
		t.Fatalf("expected truncation to 2, got %d/%d", len(snap.TopUp), len(snap.TopDown))
	}
	if snap.Meta.TopN != 2 {
		t.Fatalf("meta top_n should carry the limit, got %d", snap.Meta.TopN)
	}
}

func TestAssembleDeterministicWithTies(t *testing.T) {
	tied := []ScoredItem{
		{ItemID: "z", Q20: 0.1, Q80: 0.5},
		{ItemID: "a", Q20: 0.1, Q80: 0.5},
		{ItemID: "m", Q20: 0.1, Q80: 0.5},
	}
	a := NewRankingAssembler(10, models.RankingMeta{})

	first := a.Assemble(time.Now(), tied)
	second := a.Assemble(time.Now(), tied)
	if !reflect.DeepEqual(first.TopUp, second.TopUp) {
		t.Fatalf("ranking must be stable across runs")
	}
	if !reflect.DeepEqual(first.TopUp, []string{"a", "m", "z"}) {
		t.Fatalf("ties must break on item id: %v", first.TopUp)
	}
}
