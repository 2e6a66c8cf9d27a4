package indicators

import (
	"testing"
	"time"
)

func TestMaxDrawdown(t *testing.T) {
	cases := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"rising", []float64{1, 2, 3}, 0},
		{"dip", []float64{100, 80, 120, 90}, -0.25},
		{"single", []float64{5}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MaxDrawdown(c.closes)
			if !got.Valid {
				t.Fatalf("expected defined drawdown")
			}
			assertApprox(t, "mdd", got.Float64, c.want)
		})
	}
	if MaxDrawdown(nil).Valid {
		t.Fatalf("empty series must give null drawdown")
	}
}

func TestMaxDrawdownNeverPositive(t *testing.T) {
	for _, seed := range []int64{4, 5, 6} {
		mdd := MaxDrawdown(randomWalk(200, seed).Closes())
		if !mdd.Valid || mdd.Float64 > 0 {
			t.Fatalf("seed %d: bad drawdown %+v", seed, mdd)
		}
	}
}

func TestValueAtRisk(t *testing.T) {
	res := ValueAtRisk([]float64{0.03, -0.05, 0.01, 0, -0.02}, 0.95)
	assertApprox(t, "var", res.VaR.Float64, -0.044)
	assertApprox(t, "cvar", res.CVaR.Float64, -0.05)
	if res.CVaR.Float64 > res.VaR.Float64 {
		t.Fatalf("cvar must not exceed var")
	}
	if empty := ValueAtRisk(nil, 0.95); empty.VaR.Valid || empty.CVaR.Valid {
		t.Fatalf("expected null var for empty returns")
	}
}

func dated(start time.Time, values ...float64) []DatedReturn {
	out := make([]DatedReturn, len(values))
	for i, v := range values {
		out[i] = DatedReturn{Time: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestAlphaBeta(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	market := dated(day, 0.01, -0.02, 0.015, 0.005)
	stock := dated(day, 0.02, -0.04, 0.03, 0.01)

	res := AlphaBeta(stock, market, 0.04)
	if !res.Beta.Valid || !res.Alpha.Valid || !res.R2.Valid {
		t.Fatalf("expected defined regression: %+v", res)
	}
	assertApprox(t, "beta", res.Beta.Float64, 2)
	assertApprox(t, "r2", res.R2.Float64, 1)
	// alpha = (2m·252 − rf) − 2(m·252 − rf) = rf
	assertApprox(t, "alpha", res.Alpha.Float64, 0.04)
}

func TestAlphaBetaAlignsByDate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	market := dated(day, 0.01, -0.02)
	// Stock dates start two days later, so nothing overlaps.
	stock := dated(day.AddDate(0, 0, 2), 0.02, -0.04)
	if res := AlphaBeta(stock, market, 0.04); res.Beta.Valid || res.Alpha.Valid || res.R2.Valid {
		t.Fatalf("expected null triple without overlap, got %+v", res)
	}

	flat := dated(day, 0.5, 0.5, 0.5)
	if res := AlphaBeta(dated(day, 0.01, 0.02, 0.03), flat, 0.04); res.Beta.Valid {
		t.Fatalf("zero market variance must give null beta")
	}
}

func TestSharpe(t *testing.T) {
	if got := Sharpe([]float64{0.5, 0.5, 0.5}, 0.04); got != 0 {
		t.Fatalf("constant returns must give 0, got %v", got)
	}
	if got := Sharpe([]float64{0.01}, 0.04); got != 0 {
		t.Fatalf("single return must give 0, got %v", got)
	}
	if got := Sharpe([]float64{0.01, 0.03, 0.02, 0.04}, 0); got <= 0 {
		t.Fatalf("positive returns should give positive sharpe, got %v", got)
	}
}

func TestTailRisk(t *testing.T) {
	rs := make([]float64, 20)
	for i := range rs {
		rs[i] = float64(i+1) / 100
	}
	res := TailRisk(rs, 0.95)
	assertApprox(t, "prob", res.TailProbability.Float64, 0.05)
	assertApprox(t, "loss", res.ExpectedTailLoss.Float64, 0.01)
	if !res.Kurtosis.Valid {
		t.Fatalf("expected defined kurtosis")
	}
	if empty := TailRisk(nil, 0.95); empty.TailProbability.Valid || empty.Kurtosis.Valid {
		t.Fatalf("expected null tail risk for empty returns")
	}
}
