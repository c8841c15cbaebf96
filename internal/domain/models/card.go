package models

import "time"

// CardMeta holds the static catalog attributes of a single card.
// One row per card; attributes never change between runs.
type CardMeta struct {
	ItemID      string
	Name        string
	Rarity      string
	Printing    string
	Color       string // first color when the source stores a list
	SetID       string
	Alternate   int
	ReleaseDate time.Time
	Category    string
}

// AgeWeeks returns the card age in weeks at asOf, clamped at zero.
// A zero ReleaseDate yields zero, matching the catalog's missing-date handling.
func (c CardMeta) AgeWeeks(asOf time.Time) float64 {
	if c.ReleaseDate.IsZero() {
		return 0
	}
	days := asOf.UTC().Sub(c.ReleaseDate.UTC()).Hours() / 24
	weeks := days / 7.0
	if weeks < 0 {
		return 0
	}
	return weeks
}
