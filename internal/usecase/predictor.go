package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"CardPull/internal/domain/models"
	drepo "CardPull/internal/domain/repository"
	"CardPull/internal/services/cluster"
	"CardPull/internal/services/model"
	"CardPull/pkg/config"
	applogger "CardPull/pkg/logger"
)

// Predictor runs the scoring pass: load the trained bundle, rebuild
// panel and features, score each item's latest row with the tier
// regressors, then persist predictions and the replaced ranking
// document. Nothing is written unless the whole computation succeeds.
type Predictor struct {
	prep      dataPrep
	artifacts drepo.ArtifactStore
	preds     drepo.PredictionWriter
	rankings  drepo.RankingWriter
	cache     drepo.RankingCache // optional, may be nil
	l         *applogger.Logger
}

func NewPredictor(
	cfg *config.Config,
	catalog drepo.CatalogReader,
	prices drepo.PriceReader,
	artifacts drepo.ArtifactStore,
	preds drepo.PredictionWriter,
	rankings drepo.RankingWriter,
	cache drepo.RankingCache,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *Predictor {
	return &Predictor{
		prep:      dataPrep{cfg: cfg, catalog: catalog, prices: prices, metrics: metrics, l: l},
		artifacts: artifacts,
		preds:     preds,
		rankings:  rankings,
		cache:     cache,
		l:         l,
	}
}

// Run scores every eligible item as of now and returns how many
// predictions were persisted.
func (p *Predictor) Run(ctx context.Context) (int, error) {
	ml := p.prep.cfg.ML
	asOf := time.Now().UTC()

	bundle, err := p.artifacts.Load(ctx)
	if err != nil {
		p.prep.metrics.RecordError("artifact_load")
		return 0, fmt.Errorf("predict: %w", err)
	}
	if err := checkSchema(bundle); err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	p.l.Info("model bundle loaded",
		applogger.String("trained_at", bundle.AsOf.Format(time.RFC3339)),
		applogger.Int("tiers", len(bundle.Tiers)),
	)

	cards, err := p.prep.loadCards(ctx)
	if err != nil {
		return 0, err
	}
	feats, err := p.prep.buildFeatures(ctx)
	if err != nil {
		return 0, err
	}

	// current state per item, restricted to items with metadata
	latest := latestRows(feats)
	itemIDs := make([]string, 0, len(latest))
	for itemID := range latest {
		if _, ok := cards[itemID]; ok {
			itemIDs = append(itemIDs, itemID)
		}
	}
	sort.Strings(itemIDs)
	if len(itemIDs) == 0 {
		return 0, fmt.Errorf("predict: no items with both price history and metadata")
	}

	items := make([]models.CardMeta, len(itemIDs))
	for i, itemID := range itemIDs {
		items[i] = cards[itemID]
	}

	// cohorts from the trained model, never refit
	assign, err := cluster.NewDNAClusterer(bundle.NClusters, ml.Seed, ml.KMeans.BatchSize, ml.KMeans.MaxIter).
		Predict(bundle.Cluster, items, asOf)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}

	rowsByTier := make(map[string][]model.Row, 3)
	rowMeta := make(map[string]scoreContext, len(itemIDs))
	for i, itemID := range itemIDs {
		f := latest[itemID]
		r := model.BuildRow(f, items[i], assign[i], bundle.TierLowMax, bundle.TierMidMax, asOf)
		rowsByTier[r.Tier] = append(rowsByTier[r.Tier], r)
		rowMeta[itemID] = scoreContext{
			clusterID:     assign[i],
			priceNow:      f.Price,
			lastPriceDate: f.Date,
		}
	}

	var (
		preds  []models.Prediction
		scored []ScoredItem
	)
	for tier, rows := range rowsByTier {
		spec, ok := bundle.Tiers[tier]
		if !ok {
			// tier had no model this training cycle; it simply yields no
			// predictions until retrained with enough data
			p.l.Warn("tier has no trained model, skipping",
				applogger.String("tier", tier),
				applogger.Int("items", len(rows)),
			)
			continue
		}
		predMap, err := model.PredictTier(spec, rows)
		if err != nil {
			return 0, fmt.Errorf("predict tier %s: %w", tier, err)
		}
		q20 := predMap[model.QuantileKey(0.2)]
		q50 := predMap[model.QuantileKey(0.5)]
		q80 := predMap[model.QuantileKey(0.8)]
		if len(q20) != len(rows) || len(q50) != len(rows) || len(q80) != len(rows) {
			return 0, fmt.Errorf("predict tier %s: %d rows scored as %d/%d/%d quantile values",
				tier, len(rows), len(q20), len(q50), len(q80))
		}

		for i, r := range rows {
			mcx := rowMeta[r.ItemID]
			preds = append(preds, models.Prediction{
				ItemID:        r.ItemID,
				AsOfDate:      asOf,
				Tier:          tier,
				ClusterID:     mcx.clusterID,
				PriceNow:      roundTo(mcx.priceNow, 2),
				PredQ20:       roundTo(q20[i], 4),
				PredQ50:       roundTo(q50[i], 4),
				PredQ80:       roundTo(q80[i], 4),
				LastPriceDate: mcx.lastPriceDate,
			})
			scored = append(scored, ScoredItem{
				ItemID: r.ItemID,
				Tier:   tier,
				Q20:    q20[i],
				Q50:    q50[i],
				Q80:    q80[i],
			})
		}
		p.prep.metrics.RecordItemsScored(tier, len(rows))
	}
	if len(scored) == 0 {
		return 0, fmt.Errorf("predict: no tier produced predictions")
	}

	assembler := NewRankingAssembler(ml.TopN, models.RankingMeta{
		HorizonDays:    bundle.HorizonDays,
		MinHistoryDays: bundle.MinHistoryDays,
		TierLowMax:     bundle.TierLowMax,
		TierMidMax:     bundle.TierMidMax,
	})
	ranking := assembler.Assemble(asOf, scored)

	// persistence happens only now, after the full computation succeeded
	if err := p.preds.UpsertPredictions(ctx, preds); err != nil {
		p.prep.metrics.RecordError("prediction_write")
		return 0, fmt.Errorf("predict: upsert predictions: %w", err)
	}
	if err := p.rankings.ReplaceLatest(ctx, ranking); err != nil {
		p.prep.metrics.RecordError("ranking_write")
		return 0, fmt.Errorf("predict: replace ranking: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.SetLatest(ctx, ranking); err != nil {
			// cache staleness is recoverable; the store already holds truth
			p.prep.metrics.RecordError("ranking_cache")
			p.l.Warn("ranking cache refresh failed", applogger.Error(err))
		}
	}

	p.l.Info("predict complete",
		applogger.Int("predictions", len(preds)),
		applogger.Int("top_n", ml.TopN),
	)
	return len(preds), nil
}

type scoreContext struct {
	clusterID     int
	priceNow      float64
	lastPriceDate time.Time
}

// checkSchema is the fatal precondition on bundle/feature parity: the
// pinned column lists must match this build exactly.
func checkSchema(b *models.ModelBundle) error {
	if !equalStrings(b.CatCols, model.CatCols) {
		return fmt.Errorf("bundle cat columns %v do not match expected %v", b.CatCols, model.CatCols)
	}
	if !equalStrings(b.NumCols, model.NumCols) {
		return fmt.Errorf("bundle num columns %v do not match expected %v", b.NumCols, model.NumCols)
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// roundTo rounds to the given number of decimals for stable stored values.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
