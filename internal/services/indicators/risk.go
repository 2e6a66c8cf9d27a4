package indicators

import (
	"math"
	"time"

	"github.com/guregu/null/v6"
)

const (
	DefaultRiskFreeRate  = 0.04
	DefaultVaRConfidence = 0.95
)

// MaxDrawdown is min(price/runningMax − 1); never positive.
func MaxDrawdown(closes []float64) null.Float {
	peak := math.NaN()
	worst := 0.0
	seen := false
	for _, p := range closes {
		if isNull(p) {
			continue
		}
		if !seen || p > peak {
			peak = p
		}
		seen = true
		if peak > 0 {
			if dd := p/peak - 1; dd < worst {
				worst = dd
			}
		}
	}
	if !seen {
		return null.Float{}
	}
	return Float(worst)
}

type VaRResult struct {
	VaR  null.Float
	CVaR null.Float
}

// ValueAtRisk is the historical (1−confidence) quantile of returns and the
// mean of the returns at or below it.
func ValueAtRisk(returns []float64, confidence float64) VaRResult {
	rs := clean(returns)
	if len(rs) == 0 {
		return VaRResult{}
	}
	v := Quantile(rs, 1-confidence)
	tail := make([]float64, 0, len(rs))
	for _, r := range rs {
		if r <= v {
			tail = append(tail, r)
		}
	}
	return VaRResult{VaR: Float(v), CVaR: Float(Mean(tail))}
}

// DatedReturn is a return attached to the date of its closing bar.
type DatedReturn struct {
	Time  time.Time
	Value float64
}

// DatedReturns builds simple returns keyed by bar time.
func DatedReturns(times []time.Time, closes []float64) []DatedReturn {
	n := len(times)
	if len(closes) < n {
		n = len(closes)
	}
	if n < 2 {
		return nil
	}
	out := make([]DatedReturn, 0, n-1)
	for i := 1; i < n; i++ {
		if closes[i-1] == 0 {
			continue
		}
		r := closes[i]/closes[i-1] - 1
		if isNull(r) {
			continue
		}
		out = append(out, DatedReturn{Time: times[i], Value: r})
	}
	return out
}

type AlphaBetaResult struct {
	Alpha null.Float
	Beta  null.Float
	R2    null.Float
}

func dateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// AlphaBeta regresses stock on market returns aligned by calendar date.
// The result is all null when fewer than two dates align or the market
// variance is zero.
func AlphaBeta(stock, market []DatedReturn, riskFree float64) AlphaBetaResult {
	byDate := make(map[string]float64, len(market))
	for _, m := range market {
		byDate[dateKey(m.Time)] = m.Value
	}
	s := make([]float64, 0, len(stock))
	m := make([]float64, 0, len(stock))
	for _, r := range stock {
		mv, ok := byDate[dateKey(r.Time)]
		if !ok || isNull(mv) || isNull(r.Value) {
			continue
		}
		s = append(s, r.Value)
		m = append(m, mv)
	}
	if len(s) < 2 {
		return AlphaBetaResult{}
	}
	vm := SampleVariance(m)
	if isNull(vm) || vm == 0 {
		return AlphaBetaResult{}
	}
	cov := sampleCov(s, m)
	beta := cov / vm
	excessStock := Mean(s)*TradingDays - riskFree
	excessMarket := Mean(m)*TradingDays - riskFree
	res := AlphaBetaResult{
		Alpha: Float(excessStock - beta*excessMarket),
		Beta:  Float(beta),
	}
	if vs := SampleVariance(s); vs > 0 {
		corr := cov / math.Sqrt(vs*vm)
		res.R2 = Float(corr * corr)
	}
	return res
}

// Sharpe is the annualized excess return over annualized volatility; 0 when
// volatility is zero or undefined.
func Sharpe(returns []float64, riskFree float64) float64 {
	rs := clean(returns)
	if len(rs) < 2 {
		return 0
	}
	sd := SampleStd(rs)
	if isNull(sd) || sd == 0 {
		return 0
	}
	return (Mean(rs)*TradingDays - riskFree) / (sd * math.Sqrt(TradingDays))
}
