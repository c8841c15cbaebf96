package pricesource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"CardPull/internal/domain/models"
)

// PrimaryPrice is a single headline price quote for a card.
type PrimaryPrice struct {
	Price    *float64
	Currency string
}

// SecondaryBreakdown carries the marketplace view behind the headline
// quote: alternative price fields plus supply counts, matching the
// nullable snapshot columns they feed.
type SecondaryBreakdown struct {
	Prices   map[string]*float64
	Sellers  *float64
	Listings *float64
}

// Source is the capability contract every upstream price provider
// implements. Fetches return nil prices when the provider has no quote
// for the card; only transport and protocol failures are errors.
type Source interface {
	Name() string
	FetchPrimaryPrice(ctx context.Context, card models.CardMeta) (PrimaryPrice, error)
	FetchSecondaryBreakdown(ctx context.Context, card models.CardMeta) (SecondaryBreakdown, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Source)
)

// Register makes a provider constructor selectable by name. Called
// from provider init functions.
func Register(name string, ctor func() Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Open builds the provider registered under name.
func Open(name string) (Source, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown price source %q (known: %v)", name, Names())
	}
	return ctor(), nil
}

// Names lists registered providers in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
