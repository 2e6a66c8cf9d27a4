package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
	"TraderBlock/internal/service/cache"
	"TraderBlock/internal/service/ratelimit"
	"TraderBlock/internal/usecase"
	xhttp "TraderBlock/pkg/http"
	xlogger "TraderBlock/pkg/logger"
	"TraderBlock/pkg/metrics"
)

type stubFetcher struct{}

func (stubFetcher) Name() string { return "stub" }

func (stubFetcher) FetchSeries(_ context.Context, symbol string, _ repository.Interval, _ int) ([]models.Bar, error) {
	switch symbol {
	case "BAD":
		return nil, domain.NewUpstreamError("stub", symbol, errors.New("timeout"))
	case "NONE":
		return nil, nil
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 30)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{Timestamp: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 500}
	}
	return bars, nil
}

func newTestServer(perMinute int) *echo.Echo {
	l := xlogger.NewNop()
	svc := usecase.NewAnalysisService(
		stubFetcher{},
		cache.NewManager(context.Background(), nil, time.Minute, l),
		ratelimit.NewInbound(perMinute, 1000),
		metrics.Noop{},
		l,
		usecase.AnalysisConfig{Watchlist: []string{"AAPL", "MSFT"}},
	)
	e := echo.New()
	NewAnalysisHandler(l, svc, nil, metrics.Noop{}).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Data []xhttp.AppError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if len(body.Data) == 0 {
		t.Fatalf("no error in body %q", rec.Body.String())
	}
	return body.Data[0].Code
}

func TestStockRoutes(t *testing.T) {
	e := newTestServer(100)

	cases := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"ok", "/api/stock/aapl", http.StatusOK, ""},
		{"no data", "/api/stock/NONE", http.StatusNotFound, "ERR_NOT_FOUND"},
		{"upstream", "/api/stock/BAD", http.StatusBadGateway, "ERR_UPSTREAM"},
		{"ticker too long", "/api/stock/ABCDEFGHIJKLMN", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, tc.target)
			if rec.Code != tc.status {
				t.Fatalf("status %d want %d: %s", rec.Code, tc.status, rec.Body.String())
			}
			if tc.code != "" {
				if got := errorCode(t, rec); got != tc.code {
					t.Fatalf("code %s want %s", got, tc.code)
				}
			}
		})
	}

	rec := do(e, http.MethodGet, "/api/stock/AAPL")
	var a models.StockAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	if a.Ticker != "AAPL" || a.Confidence.Level == "" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
}

func TestRateLimitedRequest(t *testing.T) {
	e := newTestServer(1)
	if rec := do(e, http.MethodGet, "/api/stock/AAPL"); rec.Code != http.StatusOK {
		t.Fatalf("first request status %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/api/stock/AAPL")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "ERR_RATE_LIMIT" {
		t.Fatalf("unexpected code %s", got)
	}
}

func TestIndicatorsAndTrendingValidation(t *testing.T) {
	e := newTestServer(100)

	if rec := do(e, http.MethodGet, "/api/indicators/AAPL?limit=10"); rec.Code != http.StatusOK {
		t.Fatalf("indicators status %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodGet, "/api/indicators/AAPL?limit=600"); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit above 500 must be rejected, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/trending?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-integer limit must be rejected, got %d", rec.Code)
	}

	rec := do(e, http.MethodGet, "/api/trending?limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("trending status %d", rec.Code)
	}
	var tr models.Trending
	if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
		t.Fatal(err)
	}
	if len(tr.Items) != 1 {
		t.Fatalf("expected 1 trending item, got %d", len(tr.Items))
	}
}

func TestWatchlistAndStatusRoutes(t *testing.T) {
	e := newTestServer(100)

	if rec := do(e, http.MethodGet, "/api/watchlist"); rec.Code != http.StatusOK {
		t.Fatalf("watchlist status %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/watchlist/refresh"); rec.Code != http.StatusOK {
		t.Fatalf("refresh status %d", rec.Code)
	}

	rec := do(e, http.MethodGet, "/api/health")
	var h models.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "healthy" || h.RateLimiter.TotalRequests != 2 {
		t.Fatalf("unexpected health %+v", h)
	}

	for _, path := range []string{"/api/stats", "/api/cache/stats", "/api/ratelimit/stats"} {
		if rec := do(e, http.MethodGet, path); rec.Code != http.StatusOK {
			t.Fatalf("%s status %d", path, rec.Code)
		}
	}
	if rec := do(e, http.MethodGet, "/api/ws"); rec.Code != http.StatusNotFound {
		t.Fatalf("ws route must be absent without a hub, got %d", rec.Code)
	}
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&ratelimit.RateLimitExceeded{Scope: "day", Limit: 1000}, http.StatusTooManyRequests},
		{domain.ErrNoData, http.StatusNotFound},
		{domain.NewUpstreamError("twelvedata", "X", errors.New("x")), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := toAppError(c.err).Status; got != c.status {
			t.Fatalf("%v: status %d want %d", c.err, got, c.status)
		}
	}
	if scope := toAppError(&ratelimit.RateLimitExceeded{Scope: "day"}).Params["scope"]; scope != "day" {
		t.Fatalf("expected scope param, got %v", scope)
	}
}
