package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type TickerRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=12,ticker"`
}

type IndicatorsRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=12,ticker"`
	Limit  int    `query:"limit" json:"limit" default:"120" validate:"gte=1,lte=500"`
}

// RefreshRequest is the payload of a refresh message on the refresh topic.
type RefreshRequest struct {
	Ticker string `json:"ticker" validate:"required,max=12,ticker"`
}
