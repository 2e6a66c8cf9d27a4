package alpaca

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"TraderBlock/internal/domain"
	drepo "TraderBlock/internal/domain/repository"
)

type stubBars struct {
	req  marketdata.GetBarsRequest
	bars []marketdata.Bar
	err  error
}

func (s *stubBars) GetBars(_ string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	s.req = req
	return s.bars, s.err
}

func TestFetchSeriesTrimsToOutputSize(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	stub := &stubBars{}
	for i := 0; i < 5; i++ {
		stub.bars = append(stub.bars, marketdata.Bar{
			Timestamp: now.AddDate(0, 0, i-5),
			Close:     float64(100 + i),
			Volume:    1000,
		})
	}
	c := &Client{data: stub, now: func() time.Time { return now }}

	bars, err := c.FetchSeries(context.Background(), "AAPL", drepo.Interval1Day, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 3 || bars[0].Close != 102 || bars[2].Close != 104 {
		t.Fatalf("unexpected bars %+v", bars)
	}
	if bars[0].Volume != 1000 {
		t.Fatalf("volume not converted: %v", bars[0].Volume)
	}
	if stub.req.Feed != marketdata.IEX || !stub.req.End.Equal(now) || !stub.req.Start.Before(now) {
		t.Fatalf("unexpected request %+v", stub.req)
	}
}

func TestFetchSeriesWrapsError(t *testing.T) {
	c := &Client{data: &stubBars{err: errors.New("forbidden")}, now: time.Now}
	_, err := c.FetchSeries(context.Background(), "AAPL", drepo.Interval1Day, 10)
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Provider != "alpaca" {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
