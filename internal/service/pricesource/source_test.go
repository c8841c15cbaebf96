package pricesource

import (
	"context"
	"testing"
	"time"

	"CardPull/internal/domain/models"
)

func TestRegistryOpensMock(t *testing.T) {
	src, err := Open("mock")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if src.Name() != "mock" {
		t.Fatalf("unexpected name %s", src.Name())
	}
}

func TestOpenUnknownProvider(t *testing.T) {
	if _, err := Open("no-such-provider"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestMockDeterministicPerItem(t *testing.T) {
	src := &MockSource{}
	card := models.CardMeta{ItemID: "card-42"}
	ctx := context.Background()

	a, err := src.FetchPrimaryPrice(ctx, card)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	b, err := src.FetchPrimaryPrice(ctx, card)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if a.Price == nil || b.Price == nil || *a.Price != *b.Price {
		t.Fatalf("mock quotes must be stable per item: %v vs %v", a.Price, b.Price)
	}
	if *a.Price <= 0 {
		t.Fatalf("mock price must be positive, got %v", *a.Price)
	}
}

func TestMockBreakdownConsistent(t *testing.T) {
	src := &MockSource{}
	card := models.CardMeta{ItemID: "card-7"}

	bd, err := src.FetchSecondaryBreakdown(context.Background(), card)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	avg := bd.Prices["cm_price_avg"]
	low := bd.Prices["cm_price_low"]
	if avg == nil || low == nil {
		t.Fatalf("breakdown missing price fields")
	}
	if *low >= *avg {
		t.Fatalf("low %v should sit below avg %v", *low, *avg)
	}
	if bd.Sellers == nil || bd.Listings == nil {
		t.Fatalf("breakdown missing supply counts")
	}
}

func TestLimitedRespectsCancellation(t *testing.T) {
	// burst of 1 and near-zero refill so a second call must block
	lim := NewLimited(&MockSource{}, 0.0001, 1)
	card := models.CardMeta{ItemID: "c"}

	if _, err := lim.FetchPrimaryPrice(context.Background(), card); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := lim.FetchPrimaryPrice(ctx, card); err == nil {
		t.Fatalf("exhausted bucket with cancelled context must fail")
	}
}
