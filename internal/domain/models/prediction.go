package models

import "time"

// Tier labels. Assignment is a pure function of the current price and
// the two configured boundaries, recomputed every run.
const (
	TierLow  = "low"
	TierMid  = "mid"
	TierHigh = "high"
)

// AssignTier buckets a price into low/mid/high.
// Boundary semantics: price < lowMax -> low, price <= midMax -> mid, else high.
func AssignTier(price, lowMax, midMax float64) string {
	if price < lowMax {
		return TierLow
	}
	if price <= midMax {
		return TierMid
	}
	return TierHigh
}

// Prediction is the scored 28-day return distribution for one card.
// One document per card per run, upserted by ItemID.
type Prediction struct {
	ItemID        string
	AsOfDate      time.Time
	Tier          string
	ClusterID     int
	PriceNow      float64
	PredQ20       float64
	PredQ50       float64
	PredQ80       float64
	LastPriceDate time.Time
}

// TierRanking holds the per-tier ordered id lists.
type TierRanking struct {
	TopUp   []string `json:"top_up"`
	TopDown []string `json:"top_down"`
}

// RankingMeta records the run parameters the ranking was produced with.
type RankingMeta struct {
	HorizonDays    int     `json:"horizon_days"`
	MinHistoryDays int     `json:"min_history_days"`
	TopN           int     `json:"topn_per_tier"`
	TierLowMax     float64 `json:"tier_low_max"`
	TierMidMax     float64 `json:"tier_mid_max"`
}

// RankingSnapshot is the single "latest" ranking document, fully
// replaced on every successful predict run.
type RankingSnapshot struct {
	AsOfDate time.Time              `json:"as_of_date"`
	TopUp    []string               `json:"top_up"`
	TopDown  []string               `json:"top_down"`
	ByTier   map[string]TierRanking `json:"by_tier"`
	Meta     RankingMeta            `json:"meta"`
}
