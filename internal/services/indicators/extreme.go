package indicators

import "github.com/guregu/null/v6"

const DefaultTailThreshold = 0.95

type TailRiskResult struct {
	TailProbability  null.Float
	ExpectedTailLoss null.Float
	Worst1Pct        null.Float
	Kurtosis         null.Float
}

// TailRisk summarizes the left tail below the (1−threshold) quantile.
func TailRisk(returns []float64, threshold float64) TailRiskResult {
	rs := clean(returns)
	if len(rs) == 0 {
		return TailRiskResult{}
	}
	q := Quantile(rs, 1-threshold)
	tail := make([]float64, 0, len(rs))
	for _, r := range rs {
		if r <= q {
			tail = append(tail, r)
		}
	}
	return TailRiskResult{
		TailProbability:  Float(float64(len(tail)) / float64(len(rs))),
		ExpectedTailLoss: Float(Mean(tail)),
		Worst1Pct:        Float(Quantile(rs, 0.01)),
		Kurtosis:         Kurtosis(rs),
	}
}
