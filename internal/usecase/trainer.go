package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CardPull/internal/domain/models"
	drepo "CardPull/internal/domain/repository"
	"CardPull/internal/services/cluster"
	"CardPull/internal/services/features"
	"CardPull/internal/services/model"
	"CardPull/pkg/config"
	applogger "CardPull/pkg/logger"
)

// Trainer runs the full training pass: rebuild the panel, derive
// features and the forward-return label, fit the DNA clusterer and the
// per-tier quantile regressors, and persist the versioned bundle.
// A run either completes and saves the artifact, or fails and saves
// nothing.
type Trainer struct {
	prep      dataPrep
	artifacts drepo.ArtifactStore
	l         *applogger.Logger
}

func NewTrainer(
	cfg *config.Config,
	catalog drepo.CatalogReader,
	prices drepo.PriceReader,
	artifacts drepo.ArtifactStore,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *Trainer {
	return &Trainer{
		prep:      dataPrep{cfg: cfg, catalog: catalog, prices: prices, metrics: metrics, l: l},
		artifacts: artifacts,
		l:         l,
	}
}

// Run executes training as of now and returns the number of items the
// fitted models saw.
func (t *Trainer) Run(ctx context.Context) (int, error) {
	ml := t.prep.cfg.ML
	asOf := time.Now().UTC()

	cards, err := t.prep.loadCards(ctx)
	if err != nil {
		return 0, err
	}

	feats, err := t.prep.buildFeatures(ctx)
	if err != nil {
		return 0, err
	}

	// forward 28-day label over the reindexed series
	start := time.Now()
	target := features.NewTargetBuilder(ml.HorizonDays, ml.TargetClampLow, ml.TargetClampHigh)
	feats = target.ApplyAll(feats)
	t.prep.metrics.RecordStageDuration("target", time.Since(start).Seconds())

	// keep items that have catalog metadata; order them for determinism
	items := make([]models.CardMeta, 0, len(feats))
	for _, itemID := range sortedKeys(feats) {
		if card, ok := cards[itemID]; ok {
			items = append(items, card)
		}
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("training: no items with both price history and metadata")
	}

	// DNA cohorts from static attributes
	start = time.Now()
	dna := cluster.NewDNAClusterer(ml.NClusters, ml.Seed, ml.KMeans.BatchSize, ml.KMeans.MaxIter)
	clusterSpec, assign, err := dna.Fit(items, asOf)
	if err != nil {
		return 0, fmt.Errorf("training: %w", err)
	}
	clusterOf := make(map[string]int, len(items))
	for i, card := range items {
		clusterOf[card.ItemID] = assign[i]
	}
	t.prep.metrics.RecordStageDuration("cluster_fit", time.Since(start).Seconds())
	t.l.Info("dna clusters fitted",
		applogger.Int("items", len(items)),
		applogger.Int("clusters", clusterSpec.KMeans.K),
	)

	// labeled model rows, one per item-day with a usable target
	var rows []model.Row
	for _, card := range items {
		for _, f := range feats[card.ItemID] {
			if f.FutureRet == nil {
				continue
			}
			r := model.BuildRow(f, card, clusterOf[card.ItemID], ml.TierLowMax, ml.TierMidMax, asOf)
			r.Target = *f.FutureRet
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("training: empty labeled feature set")
	}
	t.prep.metrics.RecordStageRows("training_rows", len(rows))

	start = time.Now()
	modeler := model.NewTierModeler(ml.Quantiles, ml.MinTierRows, model.RegressorOptions{
		Epochs:       ml.Regressor.Epochs,
		LearningRate: ml.Regressor.LearningRate,
		LRDecay:      ml.Regressor.LRDecay,
		L2:           ml.Regressor.L2,
		Seed:         ml.Seed,
	})
	fitted, skipped, err := modeler.FitAll(model.SplitTiers(rows))
	if err != nil {
		return 0, fmt.Errorf("training: %w", err)
	}
	for _, tier := range skipped {
		t.l.Warn("tier skipped, not enough training rows",
			applogger.String("tier", tier),
			applogger.Int("min_rows", ml.MinTierRows),
		)
	}
	if len(fitted) == 0 {
		return 0, fmt.Errorf("training: every tier below %d rows, nothing fitted", ml.MinTierRows)
	}
	t.prep.metrics.RecordStageDuration("model_fit", time.Since(start).Seconds())

	bundle := &models.ModelBundle{
		AsOf:           asOf,
		HorizonDays:    ml.HorizonDays,
		MinHistoryDays: ml.MinHistoryDays,
		NClusters:      ml.NClusters,
		TierLowMax:     ml.TierLowMax,
		TierMidMax:     ml.TierMidMax,
		CatCols:        model.CatCols,
		NumCols:        model.NumCols,
		Cluster:        clusterSpec,
		Tiers:          fitted,
	}
	if err := t.artifacts.Save(ctx, bundle); err != nil {
		t.prep.metrics.RecordError("artifact_save")
		return 0, fmt.Errorf("training: save bundle: %w", err)
	}

	t.l.Info("training complete",
		applogger.Int("items", len(items)),
		applogger.Int("rows", len(rows)),
		applogger.Int("tiers_fitted", len(fitted)),
	)
	return len(items), nil
}

func sortedKeys(m map[string][]models.FeatureRow) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// map iteration order must not leak into cluster fitting
	sort.Strings(keys)
	return keys
}
