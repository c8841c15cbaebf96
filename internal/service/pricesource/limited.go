package pricesource

import (
	"context"

	"CardPull/internal/domain/models"
	"CardPull/internal/service/ratelimit"
)

// Limited wraps a Source with a token bucket so batch fetch loops stay
// inside the provider's request budget.
type Limited struct {
	src     Source
	limiter *ratelimit.Limiter
	rate    float64
	burst   float64
}

func NewLimited(src Source, ratePerSec, burst float64) *Limited {
	return &Limited{
		src:     src,
		limiter: ratelimit.New(),
		rate:    ratePerSec,
		burst:   burst,
	}
}

func (l *Limited) Name() string { return l.src.Name() }

func (l *Limited) FetchPrimaryPrice(ctx context.Context, card models.CardMeta) (PrimaryPrice, error) {
	if err := l.limiter.Wait(ctx, l.src.Name(), l.burst, l.rate); err != nil {
		return PrimaryPrice{}, err
	}
	return l.src.FetchPrimaryPrice(ctx, card)
}

func (l *Limited) FetchSecondaryBreakdown(ctx context.Context, card models.CardMeta) (SecondaryBreakdown, error) {
	if err := l.limiter.Wait(ctx, l.src.Name(), l.burst, l.rate); err != nil {
		return SecondaryBreakdown{}, err
	}
	return l.src.FetchSecondaryBreakdown(ctx, card)
}

var _ Source = (*Limited)(nil)
