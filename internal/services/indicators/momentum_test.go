package indicators

import (
	"math"
	"testing"
)

func TestRSIKnownValue(t *testing.T) {
	rsi := RSI([]float64{1, 2, 1.5}, 2)
	if !math.IsNaN(rsi[0]) || !math.IsNaN(rsi[1]) {
		t.Fatalf("expected warm-up nulls, got %v", rsi)
	}
	assertApprox(t, "rsi", rsi[2], 100-100/3.0)
}

func TestRSIBounds(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		rsi := RSI(randomWalk(200, seed).Closes(), DefaultRSIPeriod)
		for i, v := range rsi {
			if math.IsNaN(v) {
				continue
			}
			if v < 0 || v > 100 {
				t.Fatalf("seed %d: rsi[%d]=%v out of range", seed, i, v)
			}
		}
	}
}

func TestRSINullWithoutLosses(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	if Last(RSI(closes, 3)).Valid {
		t.Fatalf("rsi must be null when average loss is zero")
	}
}

func TestStochastic(t *testing.T) {
	highs := []float64{10, 12, 14, 13}
	lows := []float64{8, 9, 10, 11}
	closes := []float64{9, 11, 13, 12}
	st := Stochastic(highs, lows, closes, 2, 2)
	// window [1,2]: low 9, high 14, close 13 → 80
	assertApprox(t, "k[2]", st.K[2], 80)
	// window [2,3]: low 10, high 14, close 12 → 50
	assertApprox(t, "k[3]", st.K[3], 50)
	assertApprox(t, "d[3]", st.D[3], 65)

	flat := Stochastic([]float64{5, 5}, []float64{5, 5}, []float64{5, 5}, 2, 1)
	if !math.IsNaN(flat.K[1]) {
		t.Fatalf("flat range must give null %%K")
	}
}

func TestMACDVWarmup(t *testing.T) {
	ts := randomWalk(60, 11)
	res := MACDV(ts.Closes(), ts.Volumes(), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	if !math.IsNaN(res.MACD[DefaultMACDSlow-2]) || math.IsNaN(res.MACD[DefaultMACDSlow-1]) {
		t.Fatalf("macd warm-up boundary wrong")
	}
	first := DefaultMACDSlow + DefaultMACDSignal - 2
	if !math.IsNaN(res.Signal[first-1]) || math.IsNaN(res.Signal[first]) {
		t.Fatalf("signal warm-up boundary wrong")
	}
	last := len(res.Hist) - 1
	assertApprox(t, "hist", res.Hist[last], res.MACD[last]-res.Signal[last])
}

func TestShortSeriesIsNull(t *testing.T) {
	ts := risingSeries("AAPL", 5)
	cases := map[string][]float64{
		"atr":   ATR(ts.Highs(), ts.Lows(), ts.Closes(), DefaultATRPeriod),
		"rsi":   RSI(ts.Closes(), DefaultRSIPeriod),
		"sma20": SMA(ts.Closes(), 20),
		"ema20": EMA(ts.Closes(), 20),
		"stoch": Stochastic(ts.Highs(), ts.Lows(), ts.Closes(), DefaultStochasticK, DefaultStochasticD).K,
	}
	for name, xs := range cases {
		t.Run(name, func(t *testing.T) {
			if Last(xs).Valid {
				t.Fatalf("%s should be null on 5 bars", name)
			}
		})
	}
}
