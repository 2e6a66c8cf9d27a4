package indicators

import (
	"github.com/guregu/null/v6"

	"TraderBlock/internal/domain/models"
)

// Params holds the lookback settings used by Analyze. Zero lookbacks fall
// back to the package defaults; RiskFreeRate is used as given.
type Params struct {
	ATRPeriod       int
	BollingerPeriod int
	BollingerK      float64
	HVWindow        int
	RSIPeriod       int
	StochasticK     int
	StochasticD     int
	RiskFreeRate    float64
	VaRConfidence   float64
	TailThreshold   float64
}

// DefaultParams returns the standard indicator settings.
func DefaultParams() Params {
	return Params{
		ATRPeriod:       DefaultATRPeriod,
		BollingerPeriod: DefaultBollingerPeriod,
		BollingerK:      DefaultBollingerK,
		HVWindow:        DefaultHVWindow,
		RSIPeriod:       DefaultRSIPeriod,
		StochasticK:     DefaultStochasticK,
		StochasticD:     DefaultStochasticD,
		RiskFreeRate:    DefaultRiskFreeRate,
		VaRConfidence:   DefaultVaRConfidence,
		TailThreshold:   DefaultTailThreshold,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = d.ATRPeriod
	}
	if p.BollingerPeriod <= 0 {
		p.BollingerPeriod = d.BollingerPeriod
	}
	if p.BollingerK <= 0 {
		p.BollingerK = d.BollingerK
	}
	if p.HVWindow <= 0 {
		p.HVWindow = d.HVWindow
	}
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = d.RSIPeriod
	}
	if p.StochasticK <= 0 {
		p.StochasticK = d.StochasticK
	}
	if p.StochasticD <= 0 {
		p.StochasticD = d.StochasticD
	}
	if p.VaRConfidence <= 0 || p.VaRConfidence >= 1 {
		p.VaRConfidence = d.VaRConfidence
	}
	if p.TailThreshold <= 0 || p.TailThreshold >= 1 {
		p.TailThreshold = d.TailThreshold
	}
	return p
}

// Report is the latest-value view of every indicator for one series, plus
// the few derived values the confidence factors need.
type Report struct {
	Price      null.Float
	Volatility models.VolatilityMetrics
	Momentum   models.MomentumMetrics
	Risk       models.RiskMetrics
	Trend      models.TrendMetrics
	Returns    models.ReturnStats
	EMA20Slope null.Float
}

// Analyze runs every indicator over ts. market may be nil, in which case
// alpha, beta and r2 stay null.
func Analyze(ts models.TimeSeries, market []DatedReturn, p Params) Report {
	p = p.withDefaults()
	closes := ts.Closes()
	highs := ts.Highs()
	lows := ts.Lows()
	volumes := ts.Volumes()
	returns := PctChange(closes)

	var r Report
	r.Price = Last(closes)

	bb := Bollinger(closes, p.BollingerPeriod, p.BollingerK)
	r.Volatility = models.VolatilityMetrics{
		ATR: Last(ATR(highs, lows, closes, p.ATRPeriod)),
		Bollinger: models.BollingerSnapshot{
			Upper:     Last(bb.Upper),
			Middle:    Last(bb.Middle),
			Lower:     Last(bb.Lower),
			Bandwidth: Last(bb.Bandwidth),
			PercentB:  Last(bb.PercentB),
		},
		HistoricalVolatility: HistoricalVolatility(returns, p.HVWindow),
	}

	macd := MACDV(closes, volumes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	stoch := Stochastic(highs, lows, closes, p.StochasticK, p.StochasticD)
	r.Momentum = models.MomentumMetrics{
		MACDV:  Last(macd.MACD),
		Signal: Last(macd.Signal),
		Hist:   Last(macd.Hist),
		RSI:    Last(RSI(closes, p.RSIPeriod)),
		Stochastic: models.StochasticSnapshot{
			K: Last(stoch.K),
			D: Last(stoch.D),
		},
	}

	v := ValueAtRisk(returns, p.VaRConfidence)
	tail := TailRisk(returns, p.TailThreshold)
	r.Risk = models.RiskMetrics{
		MaxDrawdown: MaxDrawdown(closes),
		VaR:         v.VaR,
		CVaR:        v.CVaR,
		TailRisk: models.TailRisk{
			TailProbability:  tail.TailProbability,
			ExpectedTailLoss: tail.ExpectedTailLoss,
			Worst1Pct:        tail.Worst1Pct,
			Kurtosis:         tail.Kurtosis,
		},
		Sharpe: Sharpe(returns, p.RiskFreeRate),
	}
	if len(market) > 0 {
		ab := AlphaBeta(DatedReturns(ts.Times(), closes), market, p.RiskFreeRate)
		r.Risk.Alpha, r.Risk.Beta, r.Risk.R2 = ab.Alpha, ab.Beta, ab.R2
	}

	ema20 := EMA(closes, 20)
	r.Trend = models.TrendMetrics{
		SMA20:  Last(SMA(closes, 20)),
		SMA50:  Last(SMA(closes, 50)),
		SMA200: Last(SMA(closes, 200)),
		EMA20:  Last(ema20),
		EMA50:  Last(EMA(closes, 50)),
		EMA200: Last(EMA(closes, 200)),
	}
	if n := len(ema20); n >= 2 {
		r.EMA20Slope = Float(ema20[n-1] - ema20[n-2])
	}

	r.Returns = models.ReturnStats{
		Skewness: Skewness(returns),
		Kurtosis: Kurtosis(returns),
	}
	return r
}

// Charts returns chart series for ts, each trimmed to the last limit
// defined values.
func Charts(ts models.TimeSeries, limit int) models.IndicatorSeries {
	closes := ts.Closes()
	highs := ts.Highs()
	lows := ts.Lows()
	volumes := ts.Volumes()

	bb := Bollinger(closes, DefaultBollingerPeriod, DefaultBollingerK)
	stoch := Stochastic(highs, lows, closes, DefaultStochasticK, DefaultStochasticD)

	return models.IndicatorSeries{
		Ticker: ts.Symbol,
		Close:  Tail(closes, limit),
		ATR:    Tail(ATR(highs, lows, closes, DefaultATRPeriod), limit),
		Bollinger: models.BandSeries{
			Upper:  Tail(bb.Upper, limit),
			Middle: Tail(bb.Middle, limit),
			Lower:  Tail(bb.Lower, limit),
		},
		RSI: Tail(RSI(closes, DefaultRSIPeriod), limit),
		Stochastic: models.StochasticSeries{
			K: Tail(stoch.K, limit),
			D: Tail(stoch.D, limit),
		},
		EMA: map[string][]float64{
			"ema20":  Tail(EMA(closes, 20), limit),
			"ema50":  Tail(EMA(closes, 50), limit),
			"ema200": Tail(EMA(closes, 200), limit),
		},
		SMA: map[string][]float64{
			"sma20":  Tail(SMA(closes, 20), limit),
			"sma50":  Tail(SMA(closes, 50), limit),
			"sma200": Tail(SMA(closes, 200), limit),
		},
		VWAP: Tail(VWAP(closes, volumes), limit),
		OBV:  Tail(OBV(closes, volumes), limit),
	}
}
