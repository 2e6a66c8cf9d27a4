// Package confidence folds the five normalized factor scores into a single
// weighted score and tier.
package confidence

import (
	"math"

	"github.com/shopspring/decimal"

	"TraderBlock/internal/domain/models"
)

var (
	weightModelAgreement = decimal.RequireFromString("0.35")
	weightDataQuality    = decimal.RequireFromString("0.15")
	weightVolatility     = decimal.RequireFromString("0.20")
	weightSentiment      = decimal.RequireFromString("0.15")
	weightTechnical      = decimal.RequireFromString("0.15")

	highAbove   = decimal.RequireFromString("0.70")
	mediumFloor = decimal.RequireFromString("0.50")
)

// Score computes the weighted sum of f. Inputs are not range-checked; callers
// are expected to supply values in [0,1]. A NaN or infinite factor counts as
// 0. The returned score is rounded to two places while the level is decided
// on the unrounded sum.
func Score(f models.ConfidenceFactors) models.ConfidenceResult {
	sum := weightModelAgreement.Mul(finite(f.ModelAgreement)).
		Add(weightDataQuality.Mul(finite(f.DataQuality))).
		Add(weightVolatility.Mul(finite(f.VolatilityScore))).
		Add(weightSentiment.Mul(finite(f.SentimentConsistency))).
		Add(weightTechnical.Mul(finite(f.TechnicalAlignment)))

	score, _ := sum.Round(2).Float64()
	return models.ConfidenceResult{
		Score:   score,
		Level:   level(sum),
		Factors: f,
	}
}

// finite converts x, mapping NaN and ±Inf to zero; decimal panics on them.
func finite(x float64) decimal.Decimal {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(x)
}

func level(score decimal.Decimal) models.ConfidenceLevel {
	switch {
	case score.GreaterThan(highAbove):
		return models.ConfidenceHigh
	case score.GreaterThanOrEqual(mediumFloor):
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// Clamp01 bounds x to [0,1]; NaN maps to 0.
func Clamp01(x float64) float64 {
	switch {
	case x != x, x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
