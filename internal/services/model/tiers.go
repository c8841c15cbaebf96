package model

import (
	"fmt"
	"strconv"
	"time"

	"CardPull/internal/domain/models"
	"CardPull/internal/services/encoding"
)

// Model feature schema. The column lists are pinned into the bundle at
// train time and checked at load time; inference never silently runs
// on a different schema.
var (
	CatCols = []string{"rarity", "printing", "color", "set_id"}

	NumCols = []string{
		"log_price",
		"ret_7d", "ret_14d", "ret_28d", "ret_56d",
		"vol_28d", "mom_14d",
		"sellers_chg_28d", "listings_chg_28d",
		"price_to_listings", "sellers_to_listings",
		"alternate", "card_age_weeks", "cluster_id",
		"spread", "liq_index", "shock",
	}
)

// Row is one model-ready observation: categorical values aligned with
// CatCols and zero-imputed numerics aligned with NumCols.
type Row struct {
	ItemID string
	Tier   string
	Cats   []string
	Nums   []float64
	Target float64 // training label; unused at inference
}

// BuildRow assembles a model row from a feature row, its card metadata,
// and its cohort assignment. Nil numeric features are zero-filled here,
// immediately before modeling, keeping null semantics intact upstream.
func BuildRow(f models.FeatureRow, card models.CardMeta, clusterID int, lowMax, midMax float64, asOf time.Time) Row {
	return Row{
		ItemID: f.ItemID,
		Tier:   models.AssignTier(f.Price, lowMax, midMax),
		Cats:   []string{card.Rarity, card.Printing, card.Color, card.SetID},
		Nums: []float64{
			f.LogPrice,
			zeroFill(f.Ret7d), zeroFill(f.Ret14d), zeroFill(f.Ret28d), zeroFill(f.Ret56d),
			zeroFill(f.Vol28d), zeroFill(f.Mom14d),
			zeroFill(f.SellersChg28d), zeroFill(f.ListingsChg28d),
			zeroFill(f.PriceToListings), zeroFill(f.SellersToListings),
			float64(card.Alternate), card.AgeWeeks(asOf), float64(clusterID),
			zeroFill(f.Spread), zeroFill(f.LiqIndex), zeroFill(f.Shock),
		},
	}
}

func zeroFill(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// QuantileKey formats a quantile level for use as a bundle map key.
func QuantileKey(q float64) string {
	return strconv.FormatFloat(q, 'g', -1, 64)
}

// TierModeler trains and applies one independent regressor family per
// price tier.
type TierModeler struct {
	Quantiles []float64
	MinRows   int
	Reg       RegressorOptions
}

func NewTierModeler(quantiles []float64, minRows int, reg RegressorOptions) *TierModeler {
	return &TierModeler{Quantiles: quantiles, MinRows: minRows, Reg: reg}
}

// SplitTiers buckets model rows by their tier label.
func SplitTiers(rows []Row) map[string][]Row {
	out := make(map[string][]Row, 3)
	for _, r := range rows {
		out[r.Tier] = append(out[r.Tier], r)
	}
	return out
}

// FitTier trains the full quantile set for one tier's rows.
func (m *TierModeler) FitTier(rows []Row) (models.TierModelSpec, error) {
	if len(rows) == 0 {
		return models.TierModelSpec{}, fmt.Errorf("tier fit: no rows")
	}

	catRows := make([][]string, len(rows))
	for i, r := range rows {
		catRows[i] = r.Cats
	}
	enc, err := encoding.FitOneHot(CatCols, catRows)
	if err != nil {
		return models.TierModelSpec{}, fmt.Errorf("tier fit: %w", err)
	}

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		v, err := designVector(enc, r)
		if err != nil {
			return models.TierModelSpec{}, err
		}
		x[i] = v
		y[i] = r.Target
	}

	spec := models.TierModelSpec{
		Encoder:   enc,
		Quantiles: make(map[string]models.QuantileSpec, len(m.Quantiles)),
	}
	for _, q := range m.Quantiles {
		reg, err := FitQuantile(x, y, q, m.Reg)
		if err != nil {
			return models.TierModelSpec{}, fmt.Errorf("tier fit q=%v: %w", q, err)
		}
		spec.Quantiles[QuantileKey(q)] = reg
	}
	return spec, nil
}

// FitAll trains every tier that clears the minimum row count and
// reports the tiers skipped for thin data. Producing zero models is the
// caller's fatal condition, not this function's.
func (m *TierModeler) FitAll(byTier map[string][]Row) (map[string]models.TierModelSpec, []string, error) {
	fitted := make(map[string]models.TierModelSpec, len(byTier))
	var skipped []string
	for _, tier := range []string{models.TierLow, models.TierMid, models.TierHigh} {
		rows := byTier[tier]
		if len(rows) < m.MinRows {
			skipped = append(skipped, tier)
			continue
		}
		spec, err := m.FitTier(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("fit tier %s: %w", tier, err)
		}
		fitted[tier] = spec
	}
	return fitted, skipped, nil
}

// PredictTier scores rows with one tier's fitted regressors. The output
// maps each quantile key to per-row predictions, raw model output with
// no post-hoc clipping. Quantile crossing is accepted, not corrected.
func PredictTier(spec models.TierModelSpec, rows []Row) (map[string][]float64, error) {
	out := make(map[string][]float64, len(spec.Quantiles))
	for key := range spec.Quantiles {
		out[key] = make([]float64, len(rows))
	}
	for i, r := range rows {
		v, err := designVector(spec.Encoder, r)
		if err != nil {
			return nil, err
		}
		for key, reg := range spec.Quantiles {
			pred, err := PredictQuantile(reg, v)
			if err != nil {
				return nil, fmt.Errorf("tier predict q=%s: %w", key, err)
			}
			out[key][i] = pred
		}
	}
	return out, nil
}

// designVector concatenates the one-hot block with the numeric block.
func designVector(enc models.OneHotSpec, r Row) ([]float64, error) {
	cats, err := encoding.Transform(enc, r.Cats)
	if err != nil {
		return nil, fmt.Errorf("design vector: %w", err)
	}
	return append(cats, r.Nums...), nil
}
