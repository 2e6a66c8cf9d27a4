package models

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "Low"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
)

// ConfidenceFactors are the five normalized inputs of the confidence score.
// Each is expected in [0,1]; the aggregator does not check.
type ConfidenceFactors struct {
	ModelAgreement       float64 `json:"model_agreement"`
	DataQuality          float64 `json:"data_quality"`
	VolatilityScore      float64 `json:"volatility_score"`
	SentimentConsistency float64 `json:"sentiment_consistency"`
	TechnicalAlignment   float64 `json:"technical_alignment"`
}

type ConfidenceResult struct {
	Score   float64           `json:"score"`
	Level   ConfidenceLevel   `json:"level"`
	Factors ConfidenceFactors `json:"factors"`
}
