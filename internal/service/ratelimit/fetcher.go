package ratelimit

import (
	"context"
	"time"

	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
)

// RateLimitedFetcher gates every upstream call through an Outbound limiter
// and records call latency.
type RateLimitedFetcher struct {
	next    repository.SeriesFetcher
	limiter *Outbound
	metrics repository.Metrics
}

func NewRateLimitedFetcher(next repository.SeriesFetcher, limiter *Outbound, m repository.Metrics) *RateLimitedFetcher {
	return &RateLimitedFetcher{next: next, limiter: limiter, metrics: m}
}

func (f *RateLimitedFetcher) Name() string { return f.next.Name() }

func (f *RateLimitedFetcher) FetchSeries(ctx context.Context, symbol string, interval repository.Interval, outputSize int) ([]models.Bar, error) {
	if err := f.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	bars, err := f.next.FetchSeries(ctx, symbol, interval, outputSize)
	if f.metrics != nil {
		f.metrics.RecordUpstreamCall(f.next.Name(), time.Since(start).Seconds(), err)
	}
	return bars, err
}
