package usecase

import (
	"context"
	"fmt"
	"time"

	"CardPull/internal/domain/models"
	drepo "CardPull/internal/domain/repository"
	"CardPull/internal/service/pricesource"
	"CardPull/pkg/config"
	applogger "CardPull/pkg/logger"
)

// Collector fetches the current quote for every catalog card from the
// configured price provider and appends the observations as raw
// snapshots. Per-card fetch failures are counted and skipped; only
// catalog and storage failures abort the run.
type Collector struct {
	cfg     *config.Config
	catalog drepo.CatalogReader
	source  pricesource.Source
	sink    drepo.SnapshotWriter
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewCollector(
	cfg *config.Config,
	catalog drepo.CatalogReader,
	source pricesource.Source,
	sink drepo.SnapshotWriter,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *Collector {
	return &Collector{cfg: cfg, catalog: catalog, source: source, sink: sink, metrics: metrics, l: l}
}

// Run collects one snapshot per card and returns how many were written.
func (c *Collector) Run(ctx context.Context) (int, error) {
	start := time.Now()

	cards, err := c.catalog.ListCards(ctx, c.cfg.Catalog.Category)
	if err != nil {
		c.metrics.RecordError("catalog_load")
		return 0, fmt.Errorf("collect: %w", err)
	}
	c.l.Info("collecting quotes",
		applogger.String("provider", c.source.Name()),
		applogger.Int("cards", len(cards)),
	)

	now := time.Now().UTC()
	snaps := make([]models.PriceSnapshot, 0, len(cards))
	failed := 0
	for _, card := range cards {
		snap, err := c.fetchOne(ctx, card, now)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			failed++
			c.metrics.RecordError("provider_fetch")
			c.l.Warn("quote fetch failed",
				applogger.String("item_id", card.ItemID),
				applogger.Error(err),
			)
			continue
		}
		if len(snap.ValidPrices()) == 0 && snap.Sellers == nil && snap.Listings == nil {
			continue
		}
		snaps = append(snaps, snap)
	}

	if err := c.sink.InsertSnapshots(ctx, snaps); err != nil {
		c.metrics.RecordError("snapshot_insert")
		return 0, fmt.Errorf("collect: %w", err)
	}

	c.metrics.RecordStageRows("collect", len(snaps))
	c.metrics.RecordStageDuration("collect", time.Since(start).Seconds())
	c.l.Info("collect complete",
		applogger.Int("written", len(snaps)),
		applogger.Int("failed", failed),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return len(snaps), nil
}

func (c *Collector) fetchOne(ctx context.Context, card models.CardMeta, now time.Time) (models.PriceSnapshot, error) {
	snap := models.PriceSnapshot{ItemID: card.ItemID, CreatedAt: now}

	primary, err := c.source.FetchPrimaryPrice(ctx, card)
	if err != nil {
		return snap, err
	}
	snap.PricePrimary = primary.Price

	breakdown, err := c.source.FetchSecondaryBreakdown(ctx, card)
	if err != nil {
		return snap, err
	}
	snap.PricePriceCharting = breakdown.Prices["price_pricecharting"]
	snap.CMPriceAvg = breakdown.Prices["cm_price_avg"]
	snap.CMPriceLow = breakdown.Prices["cm_price_low"]
	snap.CMAvg7d = breakdown.Prices["cm_avg_7d"]
	snap.CMPriceTrend = breakdown.Prices["cm_price_trend"]
	snap.CMAvg30d = breakdown.Prices["cm_avg_30d"]
	snap.PriceUngraded = breakdown.Prices["price_ungraded"]
	snap.CMAvg1d = breakdown.Prices["cm_avg_1d"]
	snap.Sellers = breakdown.Sellers
	snap.Listings = breakdown.Listings
	return snap, nil
}
