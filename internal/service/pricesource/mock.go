package pricesource

import (
	"context"
	"hash/fnv"
	"math"

	"CardPull/internal/domain/models"
)

func init() {
	Register("mock", func() Source { return &MockSource{} })
}

// MockSource generates deterministic synthetic quotes from the card id.
// Useful for local runs and tests where no upstream is reachable.
type MockSource struct{}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchPrimaryPrice(ctx context.Context, card models.CardMeta) (PrimaryPrice, error) {
	if err := ctx.Err(); err != nil {
		return PrimaryPrice{}, err
	}
	p := m.basePrice(card.ItemID)
	return PrimaryPrice{Price: &p, Currency: "USD"}, nil
}

func (m *MockSource) FetchSecondaryBreakdown(ctx context.Context, card models.CardMeta) (SecondaryBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return SecondaryBreakdown{}, err
	}
	base := m.basePrice(card.ItemID)
	low := base * 0.9
	trend := base * 1.02
	sellers := math.Floor(base/3) + 1
	listings := sellers * 2

	return SecondaryBreakdown{
		Prices: map[string]*float64{
			"cm_price_avg":   &base,
			"cm_price_low":   &low,
			"cm_price_trend": &trend,
		},
		Sellers:  &sellers,
		Listings: &listings,
	}, nil
}

// basePrice maps an id onto a stable price in roughly [1, 400).
func (m *MockSource) basePrice(itemID string) float64 {
	h := fnv.New64a()
	h.Write([]byte(itemID))
	return 1 + float64(h.Sum64()%39900)/100
}
