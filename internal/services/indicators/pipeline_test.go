package indicators

import (
	"testing"
)

func TestAnalyzeRisingSeries(t *testing.T) {
	ts := risingSeries("AAPL", 200)
	r := Analyze(ts, nil, DefaultParams())

	if !r.Price.Valid || r.Price.Float64 != 199.5 {
		t.Fatalf("unexpected price %+v", r.Price)
	}
	if !r.Trend.SMA20.Valid || r.Trend.SMA20.Float64 >= r.Price.Float64 {
		t.Fatalf("sma20 should sit below price in an uptrend: %+v", r.Trend.SMA20)
	}
	if !r.Trend.SMA200.Valid {
		t.Fatalf("sma200 should be defined on 200 bars")
	}
	if !r.EMA20Slope.Valid || r.EMA20Slope.Float64 <= 0 {
		t.Fatalf("ema20 slope should be positive: %+v", r.EMA20Slope)
	}
	if !r.Risk.MaxDrawdown.Valid || r.Risk.MaxDrawdown.Float64 != 0 {
		t.Fatalf("monotonic series has no drawdown: %+v", r.Risk.MaxDrawdown)
	}
	if r.Momentum.RSI.Valid {
		t.Fatalf("rsi is undefined without losses")
	}
	if r.Risk.Beta.Valid {
		t.Fatalf("beta must stay null without a benchmark")
	}
	if !r.Volatility.ATR.Valid || r.Volatility.ATR.Float64 < 0 {
		t.Fatalf("unexpected atr %+v", r.Volatility.ATR)
	}
}

func TestAnalyzeShortSeries(t *testing.T) {
	r := Analyze(risingSeries("AAPL", 5), nil, Params{})
	if !r.Price.Valid {
		t.Fatalf("price should be defined")
	}
	if r.Volatility.ATR.Valid || r.Momentum.RSI.Valid || r.Volatility.HistoricalVolatility.Valid {
		t.Fatalf("lookback indicators must be null on 5 bars: %+v", r)
	}
	if r.Trend.SMA20.Valid || r.Momentum.MACDV.Valid {
		t.Fatalf("trend and macd must be null on 5 bars")
	}
}

func TestAnalyzeWithBenchmark(t *testing.T) {
	ts := randomWalk(120, 21)
	market := randomWalk(120, 22)
	r := Analyze(ts, DatedReturns(market.Times(), market.Closes()), DefaultParams())
	if !r.Risk.Beta.Valid || !r.Risk.R2.Valid {
		t.Fatalf("expected benchmark regression, got %+v", r.Risk)
	}
	if r.Risk.R2.Float64 < 0 || r.Risk.R2.Float64 > 1+eps {
		t.Fatalf("r2 out of range: %v", r.Risk.R2.Float64)
	}
}

func TestChartsTail(t *testing.T) {
	ts := randomWalk(150, 9)
	c := Charts(ts, 30)
	if c.Ticker != "TEST" {
		t.Fatalf("unexpected ticker %q", c.Ticker)
	}
	if len(c.Close) != 30 || len(c.RSI) != 30 || len(c.Bollinger.Upper) != 30 {
		t.Fatalf("expected 30 points, got close=%d rsi=%d bb=%d", len(c.Close), len(c.RSI), len(c.Bollinger.Upper))
	}
	// sma200 never fills on 150 bars.
	if len(c.SMA["sma200"]) != 0 {
		t.Fatalf("sma200 should be empty, got %d", len(c.SMA["sma200"]))
	}
}
