package timeseries

import (
	"testing"
	"time"

	"CardPull/internal/domain/models"
)

func day(d int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func snap(item string, at time.Time, price float64) models.PriceSnapshot {
	return models.PriceSnapshot{ItemID: item, CreatedAt: at, PricePrimary: models.Float64Ptr(price)}
}

func TestBuildPanelLastSnapshotOfDayWins(t *testing.T) {
	b := New()
	panel := b.BuildPanel([]models.PriceSnapshot{
		snap("c1", day(0).Add(9*time.Hour), 10),
		snap("c1", day(0).Add(21*time.Hour), 12),
		snap("c1", day(0).Add(15*time.Hour), 11),
	})

	rows := panel["c1"]
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Price != 12 {
		t.Fatalf("expected last snapshot price 12, got %v", rows[0].Price)
	}
}

func TestBuildPanelMeanAndSpreadAcrossSources(t *testing.T) {
	b := New()
	s := models.PriceSnapshot{
		ItemID:       "c1",
		CreatedAt:    day(0),
		PricePrimary: models.Float64Ptr(10),
		CMPriceAvg:   models.Float64Ptr(14),
		CMPriceLow:   models.Float64Ptr(-3), // invalid, excluded
	}
	rows := b.BuildPanel([]models.PriceSnapshot{s})["c1"]
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Price != 12 {
		t.Fatalf("expected mean 12, got %v", rows[0].Price)
	}
	if rows[0].Spread == nil || *rows[0].Spread != 4 {
		t.Fatalf("expected spread 4, got %v", rows[0].Spread)
	}
}

func TestBuildPanelReindexContiguousWithFfill(t *testing.T) {
	b := New()
	sellers := models.Float64Ptr(7.0)
	s0 := snap("c1", day(0), 10)
	s0.Sellers = sellers
	s3 := snap("c1", day(3), 16)

	rows := b.BuildPanel([]models.PriceSnapshot{s0, s3})["c1"]
	if len(rows) != 4 {
		t.Fatalf("expected 4 contiguous days, got %d", len(rows))
	}
	for i, r := range rows {
		if !r.Date.Equal(day(i)) {
			t.Fatalf("row %d: expected %v, got %v", i, day(i), r.Date)
		}
	}
	// gap days carry the last observed price forward
	if rows[1].Price != 10 || rows[2].Price != 10 {
		t.Fatalf("expected ffilled price 10, got %v %v", rows[1].Price, rows[2].Price)
	}
	if rows[3].Price != 16 {
		t.Fatalf("expected fresh price 16, got %v", rows[3].Price)
	}
	// sellers ffills per column even when the later snapshot lacks it
	if rows[3].Sellers == nil || *rows[3].Sellers != 7 {
		t.Fatalf("expected sellers ffilled to 7, got %v", rows[3].Sellers)
	}
}

func TestBuildPanelExcludesItemsWithoutValidPrice(t *testing.T) {
	b := New()
	panel := b.BuildPanel([]models.PriceSnapshot{
		{ItemID: "c1", CreatedAt: day(0), PricePrimary: models.Float64Ptr(0)},
		{ItemID: "c2", CreatedAt: day(0)},
	})
	if len(panel) != 0 {
		t.Fatalf("expected empty panel, got %d items", len(panel))
	}
}

func TestFilterMinHistory(t *testing.T) {
	b := New()
	panel := b.BuildPanel([]models.PriceSnapshot{
		snap("short", day(0), 10),
		snap("short", day(1), 11),
		snap("long", day(0), 10),
		snap("long", day(4), 11),
	})

	kept := b.FilterMinHistory(panel, 3)
	if _, ok := kept["short"]; ok {
		t.Fatalf("short item should be dropped")
	}
	if _, ok := kept["long"]; !ok {
		t.Fatalf("long item should survive")
	}
}
