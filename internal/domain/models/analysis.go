package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Payloads produced by the analysis pipeline. Undefined metrics are null in JSON.

type BollingerSnapshot struct {
	Upper     null.Float `json:"upper"`
	Middle    null.Float `json:"middle"`
	Lower     null.Float `json:"lower"`
	Bandwidth null.Float `json:"bandwidth"`
	PercentB  null.Float `json:"percent_b"`
}

type VolatilityMetrics struct {
	ATR                  null.Float        `json:"atr"`
	Bollinger            BollingerSnapshot `json:"bollinger"`
	HistoricalVolatility null.Float        `json:"historical_volatility"`
}

type StochasticSnapshot struct {
	K null.Float `json:"k"`
	D null.Float `json:"d"`
}

type MomentumMetrics struct {
	MACDV      null.Float         `json:"macd_v"`
	Signal     null.Float         `json:"signal"`
	Hist       null.Float         `json:"hist"`
	RSI        null.Float         `json:"rsi"`
	Stochastic StochasticSnapshot `json:"stochastic"`
}

type TailRisk struct {
	TailProbability  null.Float `json:"tail_risk_prob"`
	ExpectedTailLoss null.Float `json:"expected_extreme_loss"`
	Worst1Pct        null.Float `json:"worst_99"`
	Kurtosis         null.Float `json:"kurtosis"`
}

type RiskMetrics struct {
	MaxDrawdown null.Float `json:"max_drawdown"`
	VaR         null.Float `json:"var"`
	CVaR        null.Float `json:"cvar"`
	TailRisk    TailRisk   `json:"tail_risk"`
	Sharpe      float64    `json:"sharpe"`
	Alpha       null.Float `json:"alpha"`
	Beta        null.Float `json:"beta"`
	R2          null.Float `json:"r2"`
	Benchmark   string     `json:"benchmark,omitempty"`
}

type TrendMetrics struct {
	SMA20  null.Float `json:"sma20"`
	SMA50  null.Float `json:"sma50"`
	SMA200 null.Float `json:"sma200"`
	EMA20  null.Float `json:"ema20"`
	EMA50  null.Float `json:"ema50"`
	EMA200 null.Float `json:"ema200"`
}

type ReturnStats struct {
	Skewness null.Float `json:"skewness"`
	Kurtosis null.Float `json:"kurtosis"`
}

// StockAnalysis is the cached result for a single ticker.
type StockAnalysis struct {
	Ticker       string            `json:"ticker"`
	CurrentPrice null.Float        `json:"current_price"`
	Bars         int               `json:"bars"`
	Volatility   VolatilityMetrics `json:"volatility"`
	Momentum     MomentumMetrics   `json:"momentum"`
	Risk         RiskMetrics       `json:"risk"`
	Trend        TrendMetrics      `json:"trend"`
	Returns      ReturnStats       `json:"returns"`
	Confidence   ConfidenceResult  `json:"confidence"`
	AsOf         time.Time         `json:"as_of"`
}

// Chart-friendly series, most recent last, nulls dropped.

type BandSeries struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

type StochasticSeries struct {
	K []float64 `json:"k"`
	D []float64 `json:"d"`
}

type IndicatorSeries struct {
	Ticker     string               `json:"ticker"`
	Close      []float64            `json:"close"`
	ATR        []float64            `json:"atr"`
	Bollinger  BandSeries           `json:"bollinger"`
	RSI        []float64            `json:"rsi"`
	Stochastic StochasticSeries     `json:"stochastic"`
	EMA        map[string][]float64 `json:"ema"`
	SMA        map[string][]float64 `json:"sma"`
	VWAP       []float64            `json:"vwap"`
	OBV        []float64            `json:"obv"`
}

type WatchlistItem struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
}

type Watchlist struct {
	Items     []WatchlistItem `json:"watchlist"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TrendingItem struct {
	Ticker      string     `json:"ticker"`
	Change5dPct float64    `json:"change_5d_pct"`
	Volume      null.Float `json:"volume"`
}

type Trending struct {
	Items []TrendingItem `json:"trending"`
}

// AnalysisEvent is published whenever a fresh analysis has been computed.
type AnalysisEvent struct {
	Ticker     string          `json:"ticker"`
	Price      null.Float      `json:"price"`
	Score      float64         `json:"score"`
	Level      ConfidenceLevel `json:"level"`
	Source     string          `json:"source"`
	ComputedAt time.Time       `json:"computed_at"`
}
