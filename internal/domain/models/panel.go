package models

import "time"

// PanelRow is one (itemId, calendar day) observation after daily
// aggregation, reindexing, and forward-fill. Price is always present;
// sellers, listings, and spread stay nil until first observed.
type PanelRow struct {
	ItemID   string
	Date     time.Time // UTC midnight
	Price    float64
	Sellers  *float64
	Listings *float64
	Spread   *float64
}

// FeatureRow extends PanelRow with derived rolling-window columns.
// Derived columns are nil when the required history is missing or the
// computation was non-finite; nils are zero-imputed only at model-input
// time, never here.
type FeatureRow struct {
	PanelRow

	LogPrice float64

	Ret1d  *float64
	Ret7d  *float64
	Ret14d *float64
	Ret28d *float64
	Ret56d *float64

	Vol28d *float64
	Mom14d *float64

	SellersChg28d     *float64
	ListingsChg28d    *float64
	PriceToListings   *float64
	SellersToListings *float64
	LiqIndex          *float64
	Shock             *float64

	// FutureRet is the clamped 28-day forward return label.
	// Populated during training only; nil at inference.
	FutureRet *float64
}

// Float64Ptr is a small helper for building nullable columns.
func Float64Ptr(v float64) *float64 { return &v }
