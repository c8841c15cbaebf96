package models

import (
	"math"
	"time"
)

// PriceSnapshot is one raw, append-only market observation for a card.
// Every price source column is optional; a snapshot is usable as long as
// at least one source carries a positive value.
type PriceSnapshot struct {
	ItemID    string
	CreatedAt time.Time

	PricePrimary       *float64
	PricePriceCharting *float64
	CMPriceAvg         *float64
	CMPriceLow         *float64
	CMAvg7d            *float64
	CMPriceTrend       *float64
	CMAvg30d           *float64
	PriceUngraded      *float64
	CMAvg1d            *float64

	Sellers  *float64
	Listings *float64
}

// sourceOrder is the fixed priority order of price source columns used
// when aggregating a snapshot into a single effective price.
func (s PriceSnapshot) sources() []*float64 {
	return []*float64{
		s.PricePrimary,
		s.PricePriceCharting,
		s.CMPriceAvg,
		s.CMPriceLow,
		s.CMAvg7d,
		s.CMPriceTrend,
		s.CMAvg30d,
		s.PriceUngraded,
		s.CMAvg1d,
	}
}

// ValidPrices returns the positive, finite source values in priority order.
// Non-positive and missing values are excluded, not errors.
func (s PriceSnapshot) ValidPrices() []float64 {
	out := make([]float64, 0, 9)
	for _, p := range s.sources() {
		if p == nil {
			continue
		}
		v := *p
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
