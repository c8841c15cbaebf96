package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"CardPull/internal/domain/models"
)

func TestAssignTierBoundaries(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{4.99, models.TierLow},
		{5.00, models.TierMid},
		{150.00, models.TierMid},
		{150.01, models.TierHigh},
		{0.01, models.TierLow},
	}
	for _, c := range cases {
		if got := models.AssignTier(c.price, 5, 150); got != c.want {
			t.Fatalf("price %v: want %s, got %s", c.price, c.want, got)
		}
	}
}

func TestQuantileKey(t *testing.T) {
	require.Equal(t, "0.2", QuantileKey(0.2))
	require.Equal(t, "0.5", QuantileKey(0.5))
	require.Equal(t, "0.8", QuantileKey(0.8))
}

func TestBuildRowZeroFillsNilFeatures(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	card := models.CardMeta{ItemID: "c1", Rarity: "rare", Printing: "foil", Color: "red", SetID: "OP01", Alternate: 1}
	f := models.FeatureRow{
		PanelRow: models.PanelRow{ItemID: "c1", Price: 12},
		LogPrice: 2.5649,
		Ret7d:    models.Float64Ptr(0.1),
		// everything else nil
	}

	row := BuildRow(f, card, 7, 5, 150, asOf)
	require.Equal(t, models.TierMid, row.Tier)
	require.Equal(t, []string{"rare", "foil", "red", "OP01"}, row.Cats)
	require.Len(t, row.Nums, len(NumCols))

	require.Equal(t, 2.5649, row.Nums[0]) // log_price
	require.Equal(t, 0.1, row.Nums[1])    // ret_7d
	require.Equal(t, 0.0, row.Nums[2])    // nil ret_14d zero-filled
	require.Equal(t, 1.0, row.Nums[11])   // alternate
	require.Equal(t, 7.0, row.Nums[13])   // cluster_id
}

func syntheticRows(tier string, n int, base float64) []Row {
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{
			ItemID: "c",
			Tier:   tier,
			Cats:   []string{"rare", "foil", "red", "OP01"},
			Nums:   make([]float64, len(NumCols)),
			Target: base + float64(i%10)/100,
		}
		rows[i].Nums[0] = base
	}
	return rows
}

func TestSplitTiers(t *testing.T) {
	rows := append(syntheticRows(models.TierLow, 3, 1), syntheticRows(models.TierHigh, 2, 200)...)
	byTier := SplitTiers(rows)
	require.Len(t, byTier[models.TierLow], 3)
	require.Len(t, byTier[models.TierHigh], 2)
	require.Empty(t, byTier[models.TierMid])
}

func TestFitAllSkipsThinTiers(t *testing.T) {
	m := NewTierModeler([]float64{0.2, 0.5, 0.8}, 10, RegressorOptions{Epochs: 20, LearningRate: 0.05, LRDecay: 0.01, Seed: 42})

	byTier := map[string][]Row{
		models.TierLow: syntheticRows(models.TierLow, 20, 1),
		models.TierMid: syntheticRows(models.TierMid, 3, 50), // below MinRows
	}
	fitted, skipped, err := m.FitAll(byTier)
	require.NoError(t, err)

	require.Contains(t, fitted, models.TierLow)
	require.NotContains(t, fitted, models.TierMid)
	require.ElementsMatch(t, []string{models.TierMid, models.TierHigh}, skipped)

	spec := fitted[models.TierLow]
	require.Len(t, spec.Quantiles, 3)
	require.Contains(t, spec.Quantiles, "0.5")
}

func TestPredictTierScoresEveryQuantile(t *testing.T) {
	m := NewTierModeler([]float64{0.2, 0.5, 0.8}, 10, RegressorOptions{Epochs: 50, LearningRate: 0.05, LRDecay: 0.01, Seed: 42})
	rows := syntheticRows(models.TierLow, 50, 1)

	spec, err := m.FitTier(rows)
	require.NoError(t, err)

	preds, err := PredictTier(spec, rows[:5])
	require.NoError(t, err)
	require.Len(t, preds, 3)
	for key, vals := range preds {
		require.Len(t, vals, 5, "quantile %s", key)
	}
}
