package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"CardPull/internal/domain/models"
)

func sampleBundle() *models.ModelBundle {
	return &models.ModelBundle{
		AsOf:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		HorizonDays:    28,
		MinHistoryDays: 84,
		NClusters:      30,
		TierLowMax:     5,
		TierMidMax:     150,
		CatCols:        []string{"rarity", "printing", "color", "set_id"},
		NumCols:        []string{"log_price", "ret_7d"},
		Cluster: models.ClusterModelSpec{
			Encoder: models.OneHotSpec{
				Cols:       []string{"rarity"},
				Categories: map[string][]string{"rarity": {"common", "rare"}},
			},
			KMeans: models.KMeansSpec{K: 2, Seed: 42, Centroids: [][]float64{{0, 1}, {1, 0}}},
		},
		Tiers: map[string]models.TierModelSpec{
			models.TierMid: {
				Encoder: models.OneHotSpec{
					Cols:       []string{"rarity"},
					Categories: map[string][]string{"rarity": {"common", "rare"}},
				},
				Quantiles: map[string]models.QuantileSpec{
					"0.5": {Tau: 0.5, Bias: 0.17, Weights: []float64{0.1, -0.2}, Mean: []float64{0, 0}, Std: []float64{1, 1}},
				},
			},
		},
	}
}

func TestFSArtifactsRoundTrip(t *testing.T) {
	store := NewFSArtifacts(t.TempDir())
	ctx := context.Background()

	want := sampleBundle()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.AsOf.Equal(want.AsOf) {
		t.Fatalf("as_of mismatch: %v vs %v", got.AsOf, want.AsOf)
	}
	if got.HorizonDays != 28 || got.NClusters != 30 {
		t.Fatalf("scalar fields lost in round trip")
	}
	if len(got.CatCols) != 4 || got.CatCols[0] != "rarity" {
		t.Fatalf("cat cols lost: %v", got.CatCols)
	}
	mid := got.Tiers[models.TierMid]
	q, ok := mid.Quantiles["0.5"]
	if !ok {
		t.Fatalf("quantile key 0.5 lost")
	}
	if q.Bias != 0.17 || len(q.Weights) != 2 {
		t.Fatalf("regressor weights lost: %+v", q)
	}
	if got.Cluster.KMeans.K != 2 || len(got.Cluster.KMeans.Centroids) != 2 {
		t.Fatalf("cluster model lost: %+v", got.Cluster.KMeans)
	}
}

func TestFSArtifactsSaveReplacesPrevious(t *testing.T) {
	store := NewFSArtifacts(t.TempDir())
	ctx := context.Background()

	first := sampleBundle()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := sampleBundle()
	second.HorizonDays = 56
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.HorizonDays != 56 {
		t.Fatalf("second save should win, got horizon %d", got.HorizonDays)
	}
}

func TestFSArtifactsLoadMissing(t *testing.T) {
	store := NewFSArtifacts(filepath.Join(t.TempDir(), "never-written"))
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing bundle")
	}
}
