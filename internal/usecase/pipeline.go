package usecase

import (
	"context"
	"fmt"
	"time"

	"CardPull/internal/domain/models"
	drepo "CardPull/internal/domain/repository"
	"CardPull/internal/services/features"
	"CardPull/internal/services/timeseries"
	"CardPull/pkg/config"
	applogger "CardPull/pkg/logger"
)

// dataPrep is the loading and feature stage shared by training and
// inference. Everything is pulled into memory upfront; the stages
// themselves run strictly sequentially.
type dataPrep struct {
	cfg     *config.Config
	catalog drepo.CatalogReader
	prices  drepo.PriceReader
	metrics drepo.Metrics
	l       *applogger.Logger
}

// loadCards reads the catalog and indexes it by item id.
func (p *dataPrep) loadCards(ctx context.Context) (map[string]models.CardMeta, error) {
	start := time.Now()
	cards, err := p.catalog.ListCards(ctx, p.cfg.Catalog.Category)
	if err != nil {
		p.metrics.RecordError("load_cards")
		return nil, fmt.Errorf("load cards: %w", err)
	}
	byID := make(map[string]models.CardMeta, len(cards))
	for _, c := range cards {
		byID[c.ItemID] = c
	}
	p.metrics.RecordStageRows("load_cards", len(byID))
	p.metrics.RecordStageDuration("load_cards", time.Since(start).Seconds())
	p.l.Info("catalog loaded",
		applogger.String("category", p.cfg.Catalog.Category),
		applogger.Int("cards", len(byID)),
	)
	return byID, nil
}

// buildFeatures loads every snapshot, rebuilds the daily panel, applies
// the minimum-history filter, and derives the rolling-window features.
func (p *dataPrep) buildFeatures(ctx context.Context) (map[string][]models.FeatureRow, error) {
	ml := p.cfg.ML

	start := time.Now()
	snaps, err := p.prices.ListSnapshots(ctx, nil, time.Time{}, time.Time{})
	if err != nil {
		p.metrics.RecordError("load_snapshots")
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	p.metrics.RecordStageRows("load_snapshots", len(snaps))
	p.metrics.RecordStageDuration("load_snapshots", time.Since(start).Seconds())

	start = time.Now()
	builder := timeseries.New()
	panel := builder.BuildPanel(snaps)
	panel = builder.FilterMinHistory(panel, ml.MinHistoryDays)
	rows := 0
	for _, r := range panel {
		rows += len(r)
	}
	p.metrics.RecordStageRows("panel", rows)
	p.metrics.RecordStageDuration("panel", time.Since(start).Seconds())
	p.l.Info("daily panel built",
		applogger.Int("items", len(panel)),
		applogger.Int("rows", rows),
		applogger.Int("min_history_days", ml.MinHistoryDays),
	)

	start = time.Now()
	engine := features.NewEngine(
		[]int{ml.WinRet1, ml.WinRet2, ml.WinRet3, ml.WinRet4},
		ml.WinVol, ml.WinMom, ml.WinLiq,
		ml.ShockClampHigh,
	)
	feats := engine.ComputeAll(panel)
	p.metrics.RecordStageDuration("features", time.Since(start).Seconds())

	return feats, nil
}

// latestRows picks each item's most recent feature row: the current
// state scored at inference time.
func latestRows(feats map[string][]models.FeatureRow) map[string]models.FeatureRow {
	out := make(map[string]models.FeatureRow, len(feats))
	for itemID, rows := range feats {
		if len(rows) > 0 {
			out[itemID] = rows[len(rows)-1]
		}
	}
	return out
}
