package features

import (
	"math"

	"CardPull/internal/domain/models"
)

// TargetBuilder computes the leakage-safe forward return label: the
// future price is taken by shifting the reindexed daily series, never
// by calendar lookup on raw snapshots.
type TargetBuilder struct {
	HorizonDays int
	ClampLow    float64
	ClampHigh   float64
}

func NewTargetBuilder(horizonDays int, clampLow, clampHigh float64) *TargetBuilder {
	return &TargetBuilder{HorizonDays: horizonDays, ClampLow: clampLow, ClampHigh: clampHigh}
}

// ApplyItem fills FutureRet on one item's feature rows. Rows with a
// non-positive current price, or a present but non-positive future
// price, are discarded outright; they would corrupt the label. Rows
// whose horizon reaches past the series end keep a nil label and are
// filtered later, at training-set assembly.
func (t *TargetBuilder) ApplyItem(rows []models.FeatureRow) []models.FeatureRow {
	out := make([]models.FeatureRow, 0, len(rows))
	for i, r := range rows {
		if r.Price <= 0 {
			continue
		}
		j := i + t.HorizonDays
		if j < len(rows) {
			future := rows[j].Price
			if future <= 0 {
				continue
			}
			ret := (future - r.Price) / r.Price
			if math.IsNaN(ret) || math.IsInf(ret, 0) {
				r.FutureRet = nil
			} else {
				r.FutureRet = models.Float64Ptr(t.clamp(ret))
			}
		}
		out = append(out, r)
	}
	return out
}

// ApplyAll runs ApplyItem over every item.
func (t *TargetBuilder) ApplyAll(feats map[string][]models.FeatureRow) map[string][]models.FeatureRow {
	out := make(map[string][]models.FeatureRow, len(feats))
	for itemID, rows := range feats {
		out[itemID] = t.ApplyItem(rows)
	}
	return out
}

// clamp squashes outlier labels to the bound instead of dropping them.
func (t *TargetBuilder) clamp(v float64) float64 {
	if v < t.ClampLow {
		return t.ClampLow
	}
	if v > t.ClampHigh {
		return t.ClampHigh
	}
	return v
}
