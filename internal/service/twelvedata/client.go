// Package twelvedata fetches daily bars from the Twelve Data REST API.
package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	drepo "TraderBlock/internal/domain/repository"
	apphttp "TraderBlock/pkg/http"
)

const (
	DefaultBaseURL = "https://api.twelvedata.com"
	providerName   = "twelvedata"
)

// Client implements repository.SeriesFetcher.
type Client struct {
	apiKey  string
	baseURL string
	http    *apphttp.Client
}

func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    apphttp.NewClient(apphttp.WithTimeout(timeout)),
	}
}

func (c *Client) Name() string { return providerName }

// tdValue is one row of the time_series endpoint. Numbers arrive as strings.
type tdValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// tdResponse covers both the success body and the {"code","message"} error
// body, which is returned with HTTP 200.
type tdResponse struct {
	Status  string          `json:"status"`
	Code    json.Number     `json:"code"`
	Message string          `json:"message"`
	Values  []tdValue       `json:"values"`
	Meta    json.RawMessage `json:"meta"`
}

// FetchSeries calls /time_series. Values come newest first; the order is
// left to models.NewTimeSeries.
func (c *Client) FetchSeries(ctx context.Context, symbol string, interval drepo.Interval, outputSize int) ([]models.Bar, error) {
	query := url.Values{
		"apikey":     {c.apiKey},
		"symbol":     {symbol},
		"interval":   {string(drepo.NormalizeInterval(string(interval)))},
		"outputsize": {strconv.Itoa(outputSize)},
	}
	var resp tdResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/time_series", query, &resp); err != nil {
		return nil, domain.NewUpstreamError(providerName, symbol, err)
	}
	if resp.Code != "" && resp.Code != "0" {
		msg := resp.Message
		if msg == "" {
			msg = "Twelve Data API error"
		}
		return nil, domain.NewUpstreamError(providerName, symbol, fmt.Errorf("code %s: %s", resp.Code, msg))
	}

	bars := make([]models.Bar, 0, len(resp.Values))
	for _, v := range resp.Values {
		b, err := v.bar()
		if err != nil {
			return nil, domain.NewUpstreamError(providerName, symbol, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

var datetimeLayouts = []string{"2006-01-02", "2006-01-02 15:04:05"}

func (v tdValue) bar() (models.Bar, error) {
	var (
		b   models.Bar
		err error
	)
	for _, layout := range datetimeLayouts {
		if b.Timestamp, err = time.ParseInLocation(layout, v.Datetime, time.UTC); err == nil {
			break
		}
	}
	if err != nil {
		return b, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
	}
	fields := []struct {
		raw string
		dst *float64
	}{
		{v.Open, &b.Open},
		{v.High, &b.High},
		{v.Low, &b.Low},
		{v.Close, &b.Close},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return b, fmt.Errorf("parse price %q: %w", f.raw, err)
		}
	}
	// Some instruments carry no volume.
	if v.Volume != "" {
		if b.Volume, err = strconv.ParseFloat(v.Volume, 64); err != nil {
			return b, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
	}
	return b, nil
}
