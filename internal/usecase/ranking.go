package usecase

import (
	"sort"
	"time"

	"CardPull/internal/domain/models"
)

// ScoredItem is one card's scored quantile set, ready for ranking.
type ScoredItem struct {
	ItemID string
	Tier   string
	Q20    float64
	Q50    float64
	Q80    float64
}

// RankingAssembler turns scored items into the single ranking document:
// best-case winners ordered by q80, worst-case losers by q20, per tier
// and globally. Pure and deterministic: ties break on item id, so the
// same scored set always yields the same ordering.
type RankingAssembler struct {
	TopN int
	Meta models.RankingMeta
}

func NewRankingAssembler(topN int, meta models.RankingMeta) *RankingAssembler {
	meta.TopN = topN
	return &RankingAssembler{TopN: topN, Meta: meta}
}

// Assemble builds the full ranking snapshot for one run.
func (a *RankingAssembler) Assemble(asOf time.Time, scored []ScoredItem) *models.RankingSnapshot {
	snap := &models.RankingSnapshot{
		AsOfDate: asOf,
		TopUp:    a.topUp(scored),
		TopDown:  a.topDown(scored),
		ByTier:   make(map[string]models.TierRanking, 3),
		Meta:     a.Meta,
	}

	for _, tier := range []string{models.TierLow, models.TierMid, models.TierHigh} {
		var sub []ScoredItem
		for _, s := range scored {
			if s.Tier == tier {
				sub = append(sub, s)
			}
		}
		snap.ByTier[tier] = models.TierRanking{
			TopUp:   a.topUp(sub),
			TopDown: a.topDown(sub),
		}
	}
	return snap
}

// topUp ranks descending by q80: the plausibly-best outcomes.
func (a *RankingAssembler) topUp(items []ScoredItem) []string {
	ranked := append([]ScoredItem(nil), items...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Q80 != ranked[j].Q80 {
			return ranked[i].Q80 > ranked[j].Q80
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})
	return ids(ranked, a.TopN)
}

// topDown ranks ascending by q20: the plausibly-worst outcomes.
func (a *RankingAssembler) topDown(items []ScoredItem) []string {
	ranked := append([]ScoredItem(nil), items...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Q20 != ranked[j].Q20 {
			return ranked[i].Q20 < ranked[j].Q20
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})
	return ids(ranked, a.TopN)
}

func ids(items []ScoredItem, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = items[i].ItemID
	}
	return out
}
