package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"CardPull/internal/domain/models"
	"CardPull/internal/service/pricesource"
)

type memSnapSink struct{ snaps []models.PriceSnapshot }

func (m *memSnapSink) InsertSnapshots(ctx context.Context, snaps []models.PriceSnapshot) error {
	m.snaps = append(m.snaps, snaps...)
	return nil
}

type flakySource struct {
	failFor map[string]bool
}

func (f *flakySource) Name() string { return "flaky" }

func (f *flakySource) FetchPrimaryPrice(ctx context.Context, card models.CardMeta) (pricesource.PrimaryPrice, error) {
	if f.failFor[card.ItemID] {
		return pricesource.PrimaryPrice{}, fmt.Errorf("upstream 500")
	}
	return pricesource.PrimaryPrice{Price: models.Float64Ptr(25), Currency: "USD"}, nil
}

func (f *flakySource) FetchSecondaryBreakdown(ctx context.Context, card models.CardMeta) (pricesource.SecondaryBreakdown, error) {
	return pricesource.SecondaryBreakdown{
		Prices:   map[string]*float64{"cm_price_avg": models.Float64Ptr(24)},
		Listings: models.Float64Ptr(12),
	}, nil
}

func TestCollectorWritesOneSnapshotPerCard(t *testing.T) {
	cards, _ := syntheticMarket()
	sink := &memSnapSink{}
	c := NewCollector(testConfig(), &fakeCatalog{cards: cards}, &pricesource.MockSource{}, sink, nopMetrics{}, testLogger(t))

	n, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if n != len(cards) {
		t.Fatalf("expected %d snapshots, got %d", len(cards), n)
	}
	if len(sink.snaps) != len(cards) {
		t.Fatalf("sink holds %d rows", len(sink.snaps))
	}
	for _, s := range sink.snaps {
		if len(s.ValidPrices()) == 0 {
			t.Fatalf("item %s: snapshot without a usable price", s.ItemID)
		}
		if s.CreatedAt.IsZero() {
			t.Fatalf("item %s: missing timestamp", s.ItemID)
		}
	}
}

func TestCollectorSkipsFailedItems(t *testing.T) {
	cards, _ := syntheticMarket()
	sink := &memSnapSink{}
	src := &flakySource{failFor: map[string]bool{cards[0].ItemID: true, cards[3].ItemID: true}}
	c := NewCollector(testConfig(), &fakeCatalog{cards: cards}, src, sink, nopMetrics{}, testLogger(t))

	n, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("per-item failures must not abort the run: %v", err)
	}
	if n != len(cards)-2 {
		t.Fatalf("expected %d snapshots, got %d", len(cards)-2, n)
	}
	for _, s := range sink.snaps {
		if src.failFor[s.ItemID] {
			t.Fatalf("failed item %s must not be written", s.ItemID)
		}
	}
}

func TestCollectorStopsOnCancel(t *testing.T) {
	cards, _ := syntheticMarket()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector(testConfig(), &fakeCatalog{cards: cards}, &slowSource{}, &memSnapSink{}, nopMetrics{}, testLogger(t))
	if _, err := c.Run(ctx); err == nil {
		t.Fatalf("cancelled context must abort the run")
	}
}

type slowSource struct{}

func (slowSource) Name() string { return "slow" }

func (slowSource) FetchPrimaryPrice(ctx context.Context, card models.CardMeta) (pricesource.PrimaryPrice, error) {
	select {
	case <-ctx.Done():
		return pricesource.PrimaryPrice{}, ctx.Err()
	case <-time.After(time.Second):
		return pricesource.PrimaryPrice{Price: models.Float64Ptr(1)}, nil
	}
}

func (slowSource) FetchSecondaryBreakdown(ctx context.Context, card models.CardMeta) (pricesource.SecondaryBreakdown, error) {
	return pricesource.SecondaryBreakdown{}, ctx.Err()
}
