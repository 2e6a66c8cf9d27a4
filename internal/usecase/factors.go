package usecase

import (
	"math"

	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/services/confidence"
	"TraderBlock/internal/services/indicators"
)

// hvCeiling is the annualized volatility at which volatility_score hits 0.
const hvCeiling = 0.80

// deriveFactors maps an indicator report onto the five confidence inputs,
// each clamped to [0,1].
func deriveFactors(r indicators.Report, usable, requested int, sentiment float64) models.ConfidenceFactors {
	return models.ConfidenceFactors{
		ModelAgreement:       confidence.Clamp01(modelAgreement(r)),
		DataQuality:          confidence.Clamp01(dataQuality(usable, requested)),
		VolatilityScore:      confidence.Clamp01(volatilityScore(r)),
		SentimentConsistency: confidence.Clamp01(sentiment),
		TechnicalAlignment:   confidence.Clamp01(technicalAlignment(r)),
	}
}

func dataQuality(usable, requested int) float64 {
	if requested <= 0 {
		return 0
	}
	return math.Min(float64(usable)/float64(requested), 1)
}

func volatilityScore(r indicators.Report) float64 {
	hv := r.Volatility.HistoricalVolatility
	if !hv.Valid {
		return 0.5
	}
	return 1 - math.Min(hv.Float64/hvCeiling, 1)
}

// vote is +1 bullish, -1 bearish, 0 undefined.
type vote int

func compare(a, b float64, aOK, bOK bool) vote {
	if !aOK || !bOK || a == b {
		return 0
	}
	if a > b {
		return 1
	}
	return -1
}

func technicalAlignment(r indicators.Report) float64 {
	votes := []vote{
		compare(r.Price.Float64, r.Trend.SMA20.Float64, r.Price.Valid, r.Trend.SMA20.Valid),
		compare(r.Trend.SMA20.Float64, r.Trend.SMA50.Float64, r.Trend.SMA20.Valid, r.Trend.SMA50.Valid),
		compare(r.EMA20Slope.Float64, 0, r.EMA20Slope.Valid, true),
		compare(r.Momentum.Hist.Float64, 0, r.Momentum.Hist.Valid, true),
	}
	if rsi := r.Momentum.RSI; rsi.Valid {
		if rsi.Float64 >= 30 && rsi.Float64 <= 70 {
			votes = append(votes, 1)
		} else {
			votes = append(votes, -1)
		}
	}

	var defined, bullish int
	for _, v := range votes {
		if v == 0 {
			continue
		}
		defined++
		if v > 0 {
			bullish++
		}
	}
	if defined == 0 {
		return 0.5
	}
	return float64(bullish) / float64(defined)
}

// modelAgreement compares the momentum view against the trend view.
func modelAgreement(r indicators.Report) float64 {
	trend := compare(r.Price.Float64, r.Trend.SMA50.Float64, r.Price.Valid, r.Trend.SMA50.Valid)
	if trend == 0 {
		return 0.5
	}
	momentum := []vote{
		compare(r.Momentum.Hist.Float64, 0, r.Momentum.Hist.Valid, true),
		compare(r.Momentum.Stochastic.K.Float64, r.Momentum.Stochastic.D.Float64,
			r.Momentum.Stochastic.K.Valid, r.Momentum.Stochastic.D.Valid),
	}
	var defined, agree int
	for _, v := range momentum {
		if v == 0 {
			continue
		}
		defined++
		if v == trend {
			agree++
		}
	}
	switch {
	case defined == 0:
		return 0.5
	case agree == defined:
		return 1
	case agree == 0:
		return 0
	default:
		return 0.5
	}
}
