package timeseries

import (
	"sort"
	"time"

	"CardPull/internal/domain/models"
	"CardPull/pkg/util"
)

// Builder converts raw, irregularly-timed price snapshots into one
// continuous daily panel per item: last snapshot per calendar day,
// effective price across valid sources, daily reindex with forward-fill.
type Builder struct{}

func New() *Builder { return &Builder{} }

// dailyPoint is the aggregate of the winning snapshot for one day.
type dailyPoint struct {
	at       time.Time // raw timestamp, for last-of-day ordering
	price    float64
	sellers  *float64
	listings *float64
	spread   *float64
}

// BuildPanel groups snapshots by item and returns, per item, a gapless
// daily series between the item's first and last observed day. Items
// without a single valid price row are excluded entirely.
func (b *Builder) BuildPanel(snapshots []models.PriceSnapshot) map[string][]models.PanelRow {
	// (item, day) -> last snapshot of that day with a valid price
	byItem := make(map[string]map[time.Time]dailyPoint)

	for _, s := range snapshots {
		if s.ItemID == "" || s.CreatedAt.IsZero() {
			continue
		}
		valid := s.ValidPrices()
		if len(valid) == 0 {
			continue // no usable price source, silently excluded
		}

		day := util.DayFloor(s.CreatedAt)
		pt := dailyPoint{
			at:       s.CreatedAt,
			price:    mean(valid),
			sellers:  s.Sellers,
			listings: s.Listings,
			spread:   models.Float64Ptr(spread(valid)),
		}

		days, ok := byItem[s.ItemID]
		if !ok {
			days = make(map[time.Time]dailyPoint)
			byItem[s.ItemID] = days
		}
		if prev, ok := days[day]; !ok || s.CreatedAt.After(prev.at) {
			days[day] = pt
		}
	}

	panel := make(map[string][]models.PanelRow, len(byItem))
	for itemID, days := range byItem {
		rows := reindexFill(itemID, days)
		if len(rows) > 0 {
			panel[itemID] = rows
		}
	}
	return panel
}

// FilterMinHistory drops items whose reindexed series is shorter than
// minDays rows. A filter, not an error.
func (b *Builder) FilterMinHistory(panel map[string][]models.PanelRow, minDays int) map[string][]models.PanelRow {
	out := make(map[string][]models.PanelRow, len(panel))
	for itemID, rows := range panel {
		if len(rows) >= minDays {
			out[itemID] = rows
		}
	}
	return out
}

// reindexFill expands observed days into a contiguous daily calendar
// between the item's min and max day, carrying the last known values
// forward. Nothing is extrapolated before the first observation.
func reindexFill(itemID string, days map[time.Time]dailyPoint) []models.PanelRow {
	if len(days) == 0 {
		return nil
	}

	observed := make([]time.Time, 0, len(days))
	for d := range days {
		observed = append(observed, d)
	}
	sort.Slice(observed, func(i, j int) bool { return observed[i].Before(observed[j]) })

	calendar := util.DayRange(observed[0], observed[len(observed)-1])
	rows := make([]models.PanelRow, 0, len(calendar))

	// calendar[0] is always an observed day, so last is set before first use
	var last dailyPoint
	for _, day := range calendar {
		if pt, ok := days[day]; ok {
			// forward-fill applies per column: a day can carry a fresh
			// price while sellers/listings stay at their last value
			if pt.sellers == nil {
				pt.sellers = last.sellers
			}
			if pt.listings == nil {
				pt.listings = last.listings
			}
			if pt.spread == nil {
				pt.spread = last.spread
			}
			last = pt
		}
		rows = append(rows, models.PanelRow{
			ItemID:   itemID,
			Date:     day,
			Price:    last.price,
			Sellers:  last.sellers,
			Listings: last.listings,
			Spread:   last.spread,
		})
	}
	return rows
}

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func spread(vs []float64) float64 {
	min, max := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}
