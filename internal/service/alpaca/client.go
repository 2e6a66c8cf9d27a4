// Package alpaca serves daily bars from the Alpaca market data API.
package alpaca

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	drepo "TraderBlock/internal/domain/repository"
)

const providerName = "alpaca"

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Client implements repository.SeriesFetcher on the IEX feed.
type Client struct {
	data barsClient
	now  func() time.Time
}

func New(apiKey, apiSecret string) *Client {
	return &Client{
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		now: time.Now,
	}
}

func (c *Client) Name() string { return providerName }

// FetchSeries requests a calendar range wide enough to cover outputSize
// trading bars and keeps the latest outputSize of them.
func (c *Client) FetchSeries(ctx context.Context, symbol string, interval drepo.Interval, outputSize int) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tf := marketdata.OneDay
	span := time.Duration(outputSize*7/5+10) * 24 * time.Hour
	if drepo.NormalizeInterval(string(interval)) == drepo.Interval1Week {
		tf = marketdata.NewTimeFrame(1, marketdata.Week)
		span = time.Duration(outputSize+2) * 7 * 24 * time.Hour
	}
	end := c.now()
	raw, err := c.data.GetBars(symbol, marketdata.GetBarsRequest{
		Start:     end.Add(-span),
		End:       end,
		TimeFrame: tf,
		Feed:      marketdata.IEX,
	})
	if err != nil {
		return nil, domain.NewUpstreamError(providerName, symbol, err)
	}
	if len(raw) > outputSize {
		raw = raw[len(raw)-outputSize:]
	}
	bars := make([]models.Bar, len(raw))
	for i, b := range raw {
		bars[i] = models.Bar{
			Timestamp: b.Timestamp.UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		}
	}
	return bars, nil
}
