package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/guregu/null/v6"

	"TraderBlock/internal/services/indicators"
	"TraderBlock/pkg/logger"
	"TraderBlock/pkg/metrics"
)

func bullishReport() indicators.Report {
	var r indicators.Report
	r.Price = null.FloatFrom(110)
	r.Trend.SMA20 = null.FloatFrom(105)
	r.Trend.SMA50 = null.FloatFrom(100)
	r.EMA20Slope = null.FloatFrom(0.4)
	r.Momentum.Hist = null.FloatFrom(12)
	r.Momentum.RSI = null.FloatFrom(55)
	r.Momentum.Stochastic.K = null.FloatFrom(80)
	r.Momentum.Stochastic.D = null.FloatFrom(70)
	r.Volatility.HistoricalVolatility = null.FloatFrom(0.2)
	return r
}

func TestDataQuality(t *testing.T) {
	cases := []struct {
		usable, requested int
		want              float64
	}{
		{200, 200, 1},
		{100, 200, 0.5},
		{250, 200, 1},
		{10, 0, 0},
	}
	for _, c := range cases {
		if got := dataQuality(c.usable, c.requested); got != c.want {
			t.Fatalf("dataQuality(%d,%d)=%v want %v", c.usable, c.requested, got, c.want)
		}
	}
}

func TestVolatilityScore(t *testing.T) {
	var r indicators.Report
	if got := volatilityScore(r); got != 0.5 {
		t.Fatalf("null HV should score 0.5, got %v", got)
	}
	r.Volatility.HistoricalVolatility = null.FloatFrom(0.4)
	if got := volatilityScore(r); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("HV 0.4 should score 0.5, got %v", got)
	}
	r.Volatility.HistoricalVolatility = null.FloatFrom(1.5)
	if got := volatilityScore(r); got != 0 {
		t.Fatalf("HV above ceiling should score 0, got %v", got)
	}
}

func TestTechnicalAlignment(t *testing.T) {
	r := bullishReport()
	if got := technicalAlignment(r); got != 1 {
		t.Fatalf("all bullish votes should give 1, got %v", got)
	}

	r.Momentum.RSI = null.FloatFrom(85)
	r.Momentum.Hist = null.FloatFrom(-1)
	if got := technicalAlignment(r); got != 0.6 {
		t.Fatalf("3 of 5 bullish should give 0.6, got %v", got)
	}

	if got := technicalAlignment(indicators.Report{}); got != 0.5 {
		t.Fatalf("no votes should give 0.5, got %v", got)
	}
}

func TestModelAgreement(t *testing.T) {
	r := bullishReport()
	if got := modelAgreement(r); got != 1 {
		t.Fatalf("expected full agreement, got %v", got)
	}

	r.Momentum.Hist = null.FloatFrom(-3)
	if got := modelAgreement(r); got != 0.5 {
		t.Fatalf("expected mixed agreement, got %v", got)
	}

	r.Momentum.Stochastic.K = null.FloatFrom(60)
	if got := modelAgreement(r); got != 0 {
		t.Fatalf("expected disagreement, got %v", got)
	}

	r.Trend.SMA50 = null.Float{}
	if got := modelAgreement(r); got != 0.5 {
		t.Fatalf("undefined trend should give 0.5, got %v", got)
	}
}

func TestDeriveFactorsClamps(t *testing.T) {
	f := deriveFactors(bullishReport(), 200, 200, 1.7)
	if f.SentimentConsistency != 1 {
		t.Fatalf("sentiment must be clamped, got %v", f.SentimentConsistency)
	}
	f = deriveFactors(bullishReport(), 200, 200, math.NaN())
	if f.SentimentConsistency != 0 {
		t.Fatalf("NaN sentiment maps to 0, got %v", f.SentimentConsistency)
	}
}

type stubSentiment struct {
	v   float64
	err error
}

func (s stubSentiment) Sentiment(context.Context, string) (float64, error) { return s.v, s.err }

func TestSentimentSource(t *testing.T) {
	l := logger.NewNop()
	cfg := AnalysisConfig{DefaultSentiment: 0.5}
	s := NewAnalysisService(nil, nil, nil, metrics.Noop{}, l, cfg, WithSentiment(stubSentiment{v: 0.8}))
	if got := s.sentimentFor(context.Background(), "AAPL"); got != 0.8 {
		t.Fatalf("expected source value, got %v", got)
	}
	s = NewAnalysisService(nil, nil, nil, metrics.Noop{}, l, cfg, WithSentiment(stubSentiment{err: errors.New("x")}))
	if got := s.sentimentFor(context.Background(), "AAPL"); got != 0.5 {
		t.Fatalf("expected default on error, got %v", got)
	}
}
