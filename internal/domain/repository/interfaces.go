package repository

import (
	"context"

	"TraderBlock/internal/domain/models"
)

// SeriesFetcher loads daily bars from a market data provider. Bars may be
// returned in any order; callers normalize through models.NewTimeSeries.
type SeriesFetcher interface {
	Name() string
	FetchSeries(ctx context.Context, symbol string, interval Interval, outputSize int) ([]models.Bar, error)
}

// SnapshotStore persists the serialized cache map as one opaque blob.
// Load returns (nil, nil) when no snapshot exists yet.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, ev models.AnalysisEvent) error
}

// SentimentSource supplies the sentiment_consistency confidence factor in [0,1].
type SentimentSource interface {
	Sentiment(ctx context.Context, symbol string) (float64, error)
}

type Metrics interface {
	RecordCacheLookup(namespace string, hit bool)
	RecordRateLimited(scope string)
	RecordUpstreamCall(provider string, seconds float64, err error)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
