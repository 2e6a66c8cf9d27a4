package indicators

import (
	"math"
	"sort"

	"github.com/guregu/null/v6"
)

// TradingDays is the annualization factor for daily series.
const TradingDays = 252

// Series values are plain float64 slices aligned with the input bars.
// Undefined positions hold NaN and are converted to null at the boundary.

func isNull(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

func filled(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func maskLeading(xs []float64, n int) {
	for i := 0; i < n && i < len(xs); i++ {
		xs[i] = math.NaN()
	}
}

func minLen(cols ...[]float64) int {
	if len(cols) == 0 {
		return 0
	}
	n := len(cols[0])
	for _, c := range cols[1:] {
		if len(c) < n {
			n = len(c)
		}
	}
	return n
}

// Float converts x to a nullable float; NaN and ±Inf become null.
func Float(x float64) null.Float {
	if isNull(x) {
		return null.Float{}
	}
	return null.FloatFrom(x)
}

// Last returns the most recent value of xs, null when undefined.
func Last(xs []float64) null.Float {
	if len(xs) == 0 {
		return null.Float{}
	}
	return Float(xs[len(xs)-1])
}

// Tail drops undefined values and keeps at most the last n (n <= 0 keeps all).
func Tail(xs []float64, n int) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !isNull(x) {
			out = append(out, x)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func clean(xs []float64) []float64 { return Tail(xs, 0) }

// PctChange returns simple returns x[i]/x[i-1]-1, skipping undefined results.
func PctChange(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		prev := xs[i-1]
		if prev == 0 {
			continue
		}
		r := xs[i]/prev - 1
		if isNull(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RollingMean is the mean of each full window; any undefined value in the
// window makes the result undefined.
func RollingMean(xs []float64, window int) []float64 {
	out := filled(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if isNull(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd is the sample standard deviation of each full window.
func RollingStd(xs []float64, window int) []float64 {
	out := filled(len(xs))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		w := xs[i-window+1 : i+1]
		if len(clean(w)) != window {
			continue
		}
		out[i] = SampleStd(w)
	}
	return out
}

func rollingExtreme(xs []float64, window int, better func(a, b float64) bool) []float64 {
	out := filled(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		best := math.NaN()
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if isNull(xs[j]) {
				ok = false
				break
			}
			if math.IsNaN(best) || better(xs[j], best) {
				best = xs[j]
			}
		}
		if ok {
			out[i] = best
		}
	}
	return out
}

func RollingMin(xs []float64, window int) []float64 {
	return rollingExtreme(xs, window, func(a, b float64) bool { return a < b })
}

func RollingMax(xs []float64, window int) []float64 {
	return rollingExtreme(xs, window, func(a, b float64) bool { return a > b })
}

// ewm is a recursive exponential mean seeded with the first defined value:
// y[0] = x[0], y[t] = α·x[t] + (1−α)·y[t−1]. Undefined inputs carry the
// previous value forward.
func ewm(xs []float64, alpha float64) []float64 {
	out := filled(len(xs))
	have := false
	prev := 0.0
	for i, x := range xs {
		if isNull(x) {
			if have {
				out[i] = prev
			}
			continue
		}
		if !have {
			prev = x
			have = true
		} else {
			prev = alpha*x + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

func spanAlpha(span int) float64 { return 2 / (float64(span) + 1) }

// Mean of the defined values; NaN when there are none.
func Mean(xs []float64) float64 {
	c := clean(xs)
	if len(c) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range c {
		sum += x
	}
	return sum / float64(len(c))
}

// SampleVariance uses n−1 in the denominator; NaN when fewer than 2 values.
func SampleVariance(xs []float64) float64 {
	c := clean(xs)
	if len(c) < 2 {
		return math.NaN()
	}
	m := Mean(c)
	ss := 0.0
	for _, x := range c {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(c)-1)
}

func SampleStd(xs []float64) float64 { return math.Sqrt(SampleVariance(xs)) }

// sampleCov expects equal-length, fully defined inputs.
func sampleCov(a, b []float64) float64 {
	n := len(a)
	if n < 2 || len(b) != n {
		return math.NaN()
	}
	ma, mb := Mean(a), Mean(b)
	s := 0.0
	for i := 0; i < n; i++ {
		s += (a[i] - ma) * (b[i] - mb)
	}
	return s / float64(n-1)
}

// Quantile uses linear interpolation between closest ranks.
func Quantile(xs []float64, q float64) float64 {
	c := clean(xs)
	if len(c) == 0 {
		return math.NaN()
	}
	sort.Float64s(c)
	if q <= 0 {
		return c[0]
	}
	if q >= 1 {
		return c[len(c)-1]
	}
	pos := q * float64(len(c)-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= len(c) {
		return c[lo]
	}
	frac := pos - float64(lo)
	return c[lo] + (c[hi]-c[lo])*frac
}

// Skewness is the bias-corrected sample skewness; null below 3 values or
// when the variance is zero.
func Skewness(xs []float64) null.Float {
	c := clean(xs)
	n := float64(len(c))
	if len(c) < 3 {
		return null.Float{}
	}
	m := Mean(c)
	var m2, m3 float64
	for _, x := range c {
		d := x - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return null.Float{}
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return Float(math.Sqrt(n*(n-1)) / (n - 2) * g1)
}

// Kurtosis is the bias-corrected sample excess kurtosis; null below 4 values
// or when the variance is zero.
func Kurtosis(xs []float64) null.Float {
	c := clean(xs)
	n := float64(len(c))
	if len(c) < 4 {
		return null.Float{}
	}
	m := Mean(c)
	var s2, s4 float64
	for _, x := range c {
		d := x - m
		s2 += d * d
		s4 += d * d * d * d
	}
	if s2 == 0 {
		return null.Float{}
	}
	num := n * (n + 1) * (n - 1) * s4
	den := (n - 2) * (n - 3) * s2 * s2
	adj := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return Float(num/den - adj)
}
