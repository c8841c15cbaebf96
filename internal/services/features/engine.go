package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"CardPull/internal/domain/models"
)

const shockEps = 1e-9

// Engine derives rolling-window columns from a daily panel. All windows
// are causal (backward-looking); a column is nil whenever the window
// reaches before the item's first observation. Non-finite intermediate
// values become nil, never NaN.
type Engine struct {
	WinRet     []int // return horizons, e.g. 7/14/28/56
	WinVol     int
	WinMom     int
	WinLiq     int
	ShockClamp float64
}

// NewEngine builds an engine with the configured window sizes.
func NewEngine(winRet []int, winVol, winMom, winLiq int, shockClamp float64) *Engine {
	return &Engine{
		WinRet:     winRet,
		WinVol:     winVol,
		WinMom:     winMom,
		WinLiq:     winLiq,
		ShockClamp: shockClamp,
	}
}

// ComputeItem derives features for one item's contiguous daily rows.
// The input must be sorted by date ascending (panel builder output).
func (e *Engine) ComputeItem(rows []models.PanelRow) []models.FeatureRow {
	n := len(rows)
	out := make([]models.FeatureRow, n)

	prices := make([]float64, n)
	logPrices := make([]float64, n)
	for i, r := range rows {
		prices[i] = r.Price
		logPrices[i] = math.Log1p(r.Price)
	}

	// daily log return series; index i holds ln1p(p_i) - ln1p(p_{i-1})
	logRet := make([]float64, n)
	hasLogRet := make([]bool, n)
	for i := 1; i < n; i++ {
		logRet[i] = logPrices[i] - logPrices[i-1]
		hasLogRet[i] = true
	}

	for i, r := range rows {
		f := models.FeatureRow{PanelRow: r, LogPrice: logPrices[i]}

		f.Ret1d = pctChange(prices, i, 1)
		for wi, w := range e.WinRet {
			v := pctChange(prices, i, w)
			switch wi {
			case 0:
				f.Ret7d = v
			case 1:
				f.Ret14d = v
			case 2:
				f.Ret28d = v
			case 3:
				f.Ret56d = v
			}
		}

		f.Vol28d = rollingStd(logRet, hasLogRet, i, e.WinVol)
		f.Mom14d = rollingMean(logRet, hasLogRet, i, e.WinMom)

		f.SellersChg28d = pctChangePtr(rows, i, e.WinLiq, func(p models.PanelRow) *float64 { return p.Sellers })
		f.ListingsChg28d = pctChangePtr(rows, i, e.WinLiq, func(p models.PanelRow) *float64 { return p.Listings })

		f.LiqIndex = safeDivPtr(zeroAsNil(r.Listings), models.Float64Ptr(r.Price))
		f.PriceToListings = safeDivPtr(models.Float64Ptr(r.Price), r.Listings)
		f.SellersToListings = safeDivPtr(r.Sellers, r.Listings)

		f.Shock = e.shock(f.Ret1d, f.Vol28d)

		out[i] = f
	}
	return out
}

// ComputeAll runs ComputeItem over every item in the panel.
func (e *Engine) ComputeAll(panel map[string][]models.PanelRow) map[string][]models.FeatureRow {
	out := make(map[string][]models.FeatureRow, len(panel))
	for itemID, rows := range panel {
		out[itemID] = e.ComputeItem(rows)
	}
	return out
}

// shock measures the 1-day move against recent volatility, clamped to
// bound outlier influence.
func (e *Engine) shock(ret1d, vol *float64) *float64 {
	if ret1d == nil || vol == nil {
		return nil
	}
	v := math.Abs(*ret1d) / (math.Abs(*vol) + shockEps)
	if v > e.ShockClamp {
		v = e.ShockClamp
	}
	return finiteOrNil(v)
}

// pctChange returns (p_i - p_{i-n}) / p_{i-n}, nil when fewer than n
// prior observations exist or the base is zero.
func pctChange(prices []float64, i, n int) *float64 {
	if n <= 0 || i-n < 0 {
		return nil
	}
	base := prices[i-n]
	if base == 0 {
		return nil
	}
	return finiteOrNil((prices[i] - base) / base)
}

// pctChangePtr is pctChange over a nullable column.
func pctChangePtr(rows []models.PanelRow, i, n int, col func(models.PanelRow) *float64) *float64 {
	if n <= 0 || i-n < 0 {
		return nil
	}
	cur, base := col(rows[i]), col(rows[i-n])
	if cur == nil || base == nil || *base == 0 {
		return nil
	}
	return finiteOrNil((*cur - *base) / *base)
}

// rollingStd is the sample standard deviation of the last w values
// ending at i; nil unless the full window is present.
func rollingStd(vals []float64, has []bool, i, w int) *float64 {
	win := window(vals, has, i, w)
	if win == nil {
		return nil
	}
	return finiteOrNil(stat.StdDev(win, nil))
}

// rollingMean is the mean of the last w values ending at i; nil unless
// the full window is present.
func rollingMean(vals []float64, has []bool, i, w int) *float64 {
	win := window(vals, has, i, w)
	if win == nil {
		return nil
	}
	return finiteOrNil(stat.Mean(win, nil))
}

func window(vals []float64, has []bool, i, w int) []float64 {
	if w <= 1 || i-w+1 < 0 {
		return nil
	}
	for j := i - w + 1; j <= i; j++ {
		if !has[j] {
			return nil
		}
	}
	return vals[i-w+1 : i+1]
}

// zeroAsNil treats a zero count as missing; a market with no listings
// carries no liquidity signal, not a zero one.
func zeroAsNil(p *float64) *float64 {
	if p == nil || *p == 0 {
		return nil
	}
	return p
}

// safeDivPtr divides a by b with null semantics: nil or zero
// denominator yields nil, never a division error or infinity.
func safeDivPtr(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return finiteOrNil(*a / *b)
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
