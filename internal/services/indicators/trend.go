package indicators

// SMA is the simple moving average, null before the first full window.
func SMA(xs []float64, period int) []float64 { return RollingMean(xs, period) }

// EMA is the exponential moving average with α = 2/(period+1), null before
// the first full window.
func EMA(xs []float64, period int) []float64 {
	if period <= 0 {
		return filled(len(xs))
	}
	out := ewm(xs, spanAlpha(period))
	maskLeading(out, period-1)
	return out
}
