package indicators

import (
	"math"

	"github.com/guregu/null/v6"
)

const (
	DefaultATRPeriod       = 14
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
	DefaultHVWindow        = 20
)

// TrueRange is max(|h−l|, |h−prevClose|, |l−prevClose|); the first bar has
// no previous close and uses h−l alone.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := minLen(highs, lows, closes)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := math.Abs(highs[i] - lows[i])
		if i == 0 {
			out[i] = hl
			continue
		}
		pc := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(highs[i]-pc), math.Abs(lows[i]-pc)))
	}
	return out
}

// ATR is the Wilder-smoothed true range (α = 1/period). Positions before the
// first full period are null.
func ATR(highs, lows, closes []float64, period int) []float64 {
	tr := TrueRange(highs, lows, closes)
	if period <= 0 {
		return filled(len(tr))
	}
	out := ewm(tr, 1/float64(period))
	maskLeading(out, period-1)
	return out
}

type BollingerBands struct {
	Upper     []float64
	Middle    []float64
	Lower     []float64
	Bandwidth []float64
	PercentB  []float64
}

// Bollinger computes mean ± k·stdev bands with bandwidth and %b.
func Bollinger(closes []float64, period int, k float64) BollingerBands {
	n := len(closes)
	bb := BollingerBands{
		Upper:     filled(n),
		Middle:    RollingMean(closes, period),
		Lower:     filled(n),
		Bandwidth: filled(n),
		PercentB:  filled(n),
	}
	sd := RollingStd(closes, period)
	for i := 0; i < n; i++ {
		mid := bb.Middle[i]
		if isNull(mid) || isNull(sd[i]) {
			bb.Middle[i] = math.NaN()
			continue
		}
		u := mid + k*sd[i]
		l := mid - k*sd[i]
		bb.Upper[i] = u
		bb.Lower[i] = l
		if mid != 0 {
			bb.Bandwidth[i] = (u - l) / mid
		}
		if u != l {
			bb.PercentB[i] = (closes[i] - l) / (u - l)
		}
	}
	return bb
}

// HistoricalVolatility is the latest rolling stdev of returns, annualized.
func HistoricalVolatility(returns []float64, window int) null.Float {
	sd := RollingStd(returns, window)
	last := Last(sd)
	if !last.Valid {
		return last
	}
	return Float(last.Float64 * math.Sqrt(TradingDays))
}
