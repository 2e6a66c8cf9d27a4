package indicators

import "math"

const (
	DefaultMACDFast    = 12
	DefaultMACDSlow    = 26
	DefaultMACDSignal  = 9
	DefaultRSIPeriod   = 14
	DefaultStochasticK = 14
	DefaultStochasticD = 3
)

type MACDResult struct {
	MACD   []float64
	Signal []float64
	Hist   []float64
}

// MACDV is a MACD over the volume-weighted price close×volume.
func MACDV(closes, volumes []float64, fast, slow, signal int) MACDResult {
	n := minLen(closes, volumes)
	pv := make([]float64, n)
	for i := 0; i < n; i++ {
		pv[i] = closes[i] * volumes[i]
	}
	ef := ewm(pv, spanAlpha(fast))
	es := ewm(pv, spanAlpha(slow))
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = ef[i] - es[i]
	}
	sig := ewm(macd, spanAlpha(signal))
	hist := make([]float64, n)
	for i := range hist {
		hist[i] = macd[i] - sig[i]
	}

	warm := fast
	if slow > warm {
		warm = slow
	}
	maskLeading(macd, warm-1)
	maskLeading(sig, warm+signal-2)
	maskLeading(hist, warm+signal-2)
	return MACDResult{MACD: macd, Signal: sig, Hist: hist}
}

// RSI uses simple rolling means of gains and losses. A zero mean loss leaves
// RS undefined and the RSI null.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	gains := filled(n)
	losses := filled(n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	ag := RollingMean(gains, period)
	al := RollingMean(losses, period)
	out := filled(n)
	for i := 0; i < n; i++ {
		if isNull(ag[i]) || isNull(al[i]) || al[i] == 0 {
			continue
		}
		rs := ag[i] / al[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic computes %K over kPeriod and %D as its dPeriod mean. A flat
// high/low range leaves %K null.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) StochasticResult {
	n := minLen(highs, lows, closes)
	lowMin := RollingMin(lows[:n], kPeriod)
	highMax := RollingMax(highs[:n], kPeriod)
	k := filled(n)
	for i := 0; i < n; i++ {
		rng := highMax[i] - lowMin[i]
		if isNull(rng) || rng == 0 {
			continue
		}
		k[i] = 100 * (closes[i] - lowMin[i]) / rng
	}
	return StochasticResult{K: k, D: RollingMean(k, dPeriod)}
}
