package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
	"TraderBlock/internal/service/cache"
	"TraderBlock/internal/service/ratelimit"
	"TraderBlock/internal/services/confidence"
	"TraderBlock/internal/services/indicators"
	"TraderBlock/pkg/logger"
)

const (
	nsStock     = "stock"
	nsWatchlist = "watchlist"
	nsBenchmark = "benchmark"

	watchlistKeyTicker = "all"

	watchlistOutputSize = 2
	trendingOutputSize  = 6
	trendingMaxLimit    = 50

	SourceRequest   = "request"
	SourceScheduler = "scheduler"
	SourceKafka     = "kafka"
)

// TopWatchlist is the default watchlist: thirty large-cap US tickers.
var TopWatchlist = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "META", "NVDA", "TSLA", "BRK.B", "JPM", "V",
	"UNH", "HD", "MA", "PG", "XOM", "AVGO", "LLY", "JNJ", "WMT", "CVX",
	"KO", "PFE", "BAC", "DIS", "PEP", "ABBV", "COST", "CSCO", "ADBE", "NFLX",
}

type AnalysisConfig struct {
	OutputSize       int
	ChartLimit       int
	Benchmark        string
	RiskFreeRate     float64
	Watchlist        []string
	RefreshTickers   []string
	FanOut           int
	DefaultSentiment float64
	ComputeTimeout   time.Duration
}

func (c AnalysisConfig) withDefaults() AnalysisConfig {
	if c.OutputSize <= 0 {
		c.OutputSize = 200
	}
	if c.ChartLimit <= 0 {
		c.ChartLimit = 120
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = TopWatchlist
	}
	if c.FanOut <= 0 {
		c.FanOut = 4
	}
	if c.ComputeTimeout <= 0 {
		c.ComputeTimeout = time.Minute
	}
	return c
}

// AnalysisService composes the limiter, cache, fetcher, indicator pipeline
// and confidence aggregator behind the request operations.
type AnalysisService struct {
	fetcher   repository.SeriesFetcher
	cache     *cache.Manager
	limiter   *ratelimit.Inbound
	publisher repository.AnalysisPublisher
	sentiment repository.SentimentSource
	metrics   repository.Metrics
	log       *logger.Logger
	cfg       AnalysisConfig

	group   singleflight.Group
	started time.Time
	now     func() time.Time
}

type ServiceOption func(*AnalysisService)

func WithPublisher(p repository.AnalysisPublisher) ServiceOption {
	return func(s *AnalysisService) { s.publisher = p }
}

func WithSentiment(src repository.SentimentSource) ServiceOption {
	return func(s *AnalysisService) { s.sentiment = src }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *AnalysisService) { s.now = now }
}

func NewAnalysisService(fetcher repository.SeriesFetcher, c *cache.Manager, limiter *ratelimit.Inbound, m repository.Metrics, l *logger.Logger, cfg AnalysisConfig, opts ...ServiceOption) *AnalysisService {
	s := &AnalysisService{
		fetcher: fetcher,
		cache:   c,
		limiter: limiter,
		metrics: m,
		log:     l,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.started = s.now()
	return s
}

func (s *AnalysisService) enforce(clientID string) error {
	err := s.limiter.Enforce(clientID)
	var rl *ratelimit.RateLimitExceeded
	if errors.As(err, &rl) {
		s.metrics.RecordRateLimited(rl.Scope)
		s.log.Warn("rate limit exceeded", logger.String("client", clientID), logger.String("scope", rl.Scope))
	}
	return err
}

// StockAnalysis returns the analysis payload for ticker, served from cache
// when fresh. Cached bytes are returned unchanged.
func (s *AnalysisService) StockAnalysis(ctx context.Context, clientID, ticker string) (json.RawMessage, error) {
	if err := s.enforce(clientID); err != nil {
		return nil, err
	}
	t := models.NormalizeTicker(ticker)
	if b, ok := s.cache.Get(cache.Key(nsStock, t)); ok {
		return b, nil
	}
	return s.recompute(ctx, t, SourceRequest)
}

// RefreshTicker recomputes one ticker without touching the inbound limiter
// or reading the cache.
func (s *AnalysisService) RefreshTicker(ctx context.Context, ticker, source string) error {
	_, err := s.recompute(ctx, models.NormalizeTicker(ticker), source)
	return err
}

// shared runs fn once per key for all concurrent callers. fn runs under a
// context that outlives any single caller and is bounded by ComputeTimeout;
// each caller stops waiting when its own ctx ends.
func (s *AnalysisService) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ComputeTimeout)
		defer cancel()
		return fn(wctx)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recompute coalesces concurrent misses for the same ticker.
func (s *AnalysisService) recompute(ctx context.Context, ticker, source string) (json.RawMessage, error) {
	key := cache.Key(nsStock, ticker)
	v, err := s.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeAndStore(ctx, ticker, source)
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (s *AnalysisService) computeAndStore(ctx context.Context, ticker, source string) (json.RawMessage, error) {
	start := time.Now()
	ts, err := s.series(ctx, ticker, s.cfg.OutputSize)
	if err != nil {
		s.metrics.RecordError("fetch")
		return nil, err
	}

	analysis := s.analyze(ctx, ts)
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("encode analysis %s: %w", ticker, err)
	}

	if err := s.cache.Set(ctx, cache.Key(nsStock, ticker), json.RawMessage(payload)); err != nil {
		s.metrics.RecordError("persistence")
		s.log.Warn("cache snapshot write failed", logger.String("ticker", ticker), logger.Error(err))
	}
	if analysis.CurrentPrice.Valid {
		s.metrics.RecordLastPrice(ticker, analysis.CurrentPrice.Float64)
	}
	s.publish(ctx, analysis, source)
	s.metrics.RecordLatency("stock_analysis", time.Since(start).Seconds())

	s.log.Info("analysis computed",
		logger.String("ticker", ticker),
		logger.String("source", source),
		logger.Float64("score", analysis.Confidence.Score),
		logger.String("level", string(analysis.Confidence.Level)),
		logger.Duration("took", time.Since(start)))
	return payload, nil
}

func (s *AnalysisService) series(ctx context.Context, ticker string, outputSize int) (models.TimeSeries, error) {
	bars, err := s.fetcher.FetchSeries(ctx, ticker, repository.Interval1Day, outputSize)
	if err != nil {
		return models.TimeSeries{}, err
	}
	ts := models.NewTimeSeries(ticker, bars)
	if ts.Empty() {
		return models.TimeSeries{}, fmt.Errorf("%s: %w", ticker, domain.ErrNoData)
	}
	return ts, nil
}

func (s *AnalysisService) analyze(ctx context.Context, ts models.TimeSeries) models.StockAnalysis {
	params := indicators.DefaultParams()
	params.RiskFreeRate = s.cfg.RiskFreeRate

	report := indicators.Analyze(ts, s.benchmarkReturns(ctx, ts), params)
	factors := deriveFactors(report, ts.Len(), s.cfg.OutputSize, s.sentimentFor(ctx, ts.Symbol))

	report.Risk.Benchmark = s.cfg.Benchmark
	return models.StockAnalysis{
		Ticker:       ts.Symbol,
		CurrentPrice: report.Price,
		Bars:         ts.Len(),
		Volatility:   report.Volatility,
		Momentum:     report.Momentum,
		Risk:         report.Risk,
		Trend:        report.Trend,
		Returns:      report.Returns,
		Confidence:   confidence.Score(factors),
		AsOf:         s.now().UTC(),
	}
}

// benchmarkReturns loads the benchmark series through the cache. Any failure
// leaves alpha and beta null rather than failing the analysis.
func (s *AnalysisService) benchmarkReturns(ctx context.Context, ts models.TimeSeries) []indicators.DatedReturn {
	if s.cfg.Benchmark == "" {
		return nil
	}
	bench := models.NormalizeTicker(s.cfg.Benchmark)
	if bench == ts.Symbol {
		return indicators.DatedReturns(ts.Times(), ts.Closes())
	}

	key := cache.Key(nsBenchmark, bench)
	if raw, ok := s.cache.Peek(key); ok {
		var bars []models.Bar
		if err := json.Unmarshal(raw, &bars); err == nil {
			b := models.NewTimeSeries(bench, bars)
			return indicators.DatedReturns(b.Times(), b.Closes())
		}
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		b, err := s.series(ctx, bench, s.cfg.OutputSize)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, b.Bars); err != nil {
			s.log.Warn("cache snapshot write failed", logger.String("ticker", bench), logger.Error(err))
		}
		return b, nil
	})
	if err != nil {
		s.log.Warn("benchmark unavailable", logger.String("benchmark", bench), logger.Error(err))
		return nil
	}
	b := v.(models.TimeSeries)
	return indicators.DatedReturns(b.Times(), b.Closes())
}

func (s *AnalysisService) sentimentFor(ctx context.Context, ticker string) float64 {
	if s.sentiment == nil {
		return s.cfg.DefaultSentiment
	}
	v, err := s.sentiment.Sentiment(ctx, ticker)
	if err != nil {
		s.log.Debug("sentiment unavailable", logger.String("ticker", ticker), logger.Error(err))
		return s.cfg.DefaultSentiment
	}
	return v
}

func (s *AnalysisService) publish(ctx context.Context, a models.StockAnalysis, source string) {
	if s.publisher == nil {
		return
	}
	ev := models.AnalysisEvent{
		Ticker:     a.Ticker,
		Price:      a.CurrentPrice,
		Score:      a.Confidence.Score,
		Level:      a.Confidence.Level,
		Source:     source,
		ComputedAt: a.AsOf,
	}
	if err := s.publisher.PublishAnalysis(ctx, ev); err != nil {
		s.metrics.RecordError("publish")
		s.log.Warn("publish analysis failed", logger.String("ticker", a.Ticker), logger.Error(err))
	}
}

// Indicators returns chart series for ticker trimmed to the last limit
// defined values.
func (s *AnalysisService) Indicators(ctx context.Context, clientID, ticker string, limit int) (models.IndicatorSeries, error) {
	if err := s.enforce(clientID); err != nil {
		return models.IndicatorSeries{}, err
	}
	if limit <= 0 {
		limit = s.cfg.ChartLimit
	}
	t := models.NormalizeTicker(ticker)
	v, err := s.shared(ctx, "series:"+t, func(ctx context.Context) (interface{}, error) {
		return s.series(ctx, t, s.cfg.OutputSize)
	})
	if err != nil {
		return models.IndicatorSeries{}, err
	}
	return indicators.Charts(v.(models.TimeSeries), limit), nil
}

// Watchlist returns last price and one-day change for the configured
// watchlist. Tickers that fail to load are left out.
func (s *AnalysisService) Watchlist(ctx context.Context, clientID string) (json.RawMessage, error) {
	if err := s.enforce(clientID); err != nil {
		return nil, err
	}
	if b, ok := s.cache.Get(cache.Key(nsWatchlist, watchlistKeyTicker)); ok {
		return b, nil
	}
	return s.rebuildWatchlist(ctx)
}

// RefreshWatchlist drops the cached watchlist and rebuilds it.
func (s *AnalysisService) RefreshWatchlist(ctx context.Context, clientID string) (json.RawMessage, error) {
	if err := s.enforce(clientID); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, cache.Key(nsWatchlist, watchlistKeyTicker)); err != nil {
		s.log.Warn("cache snapshot write failed", logger.Error(err))
	}
	return s.rebuildWatchlist(ctx)
}

func (s *AnalysisService) rebuildWatchlist(ctx context.Context) (json.RawMessage, error) {
	key := cache.Key(nsWatchlist, watchlistKeyTicker)
	v, err := s.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		items := make([]*models.WatchlistItem, len(s.cfg.Watchlist))
		s.fanOut(ctx, s.cfg.Watchlist, func(i int, ticker string) {
			ts, err := s.series(ctx, ticker, watchlistOutputSize)
			if err != nil {
				s.log.Debug("watchlist ticker skipped", logger.String("ticker", ticker), logger.Error(err))
				return
			}
			closes := ts.Closes()
			last := closes[len(closes)-1]
			prev := last
			if len(closes) > 1 {
				prev = closes[len(closes)-2]
			}
			items[i] = &models.WatchlistItem{
				Ticker:    ts.Symbol,
				Price:     round2(last),
				ChangePct: round2(changePct(last, prev)),
			}
		})

		wl := models.Watchlist{Items: make([]models.WatchlistItem, 0, len(items)), UpdatedAt: s.now().UTC()}
		for _, it := range items {
			if it != nil {
				wl.Items = append(wl.Items, *it)
			}
		}
		payload, err := json.Marshal(wl)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, json.RawMessage(payload)); err != nil {
			s.log.Warn("cache snapshot write failed", logger.Error(err))
		}
		return json.RawMessage(payload), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Trending ranks the watchlist by change over the last five bars. limit is
// clamped to [1,50].
func (s *AnalysisService) Trending(ctx context.Context, clientID string, limit int) (models.Trending, error) {
	if err := s.enforce(clientID); err != nil {
		return models.Trending{}, err
	}
	limit = max(1, min(limit, trendingMaxLimit))

	items := make([]*models.TrendingItem, len(s.cfg.Watchlist))
	s.fanOut(ctx, s.cfg.Watchlist, func(i int, ticker string) {
		ts, err := s.series(ctx, ticker, trendingOutputSize)
		if err != nil {
			s.log.Debug("trending ticker skipped", logger.String("ticker", ticker), logger.Error(err))
			return
		}
		closes := ts.Closes()
		n := len(closes)
		last := closes[n-1]
		prev5 := closes[0]
		if n > 5 {
			prev5 = closes[n-5]
		}
		bar, _ := ts.Last()
		items[i] = &models.TrendingItem{
			Ticker:      ts.Symbol,
			Change5dPct: round2(changePct(last, prev5)),
			Volume:      null.FloatFrom(bar.Volume),
		}
	})

	out := models.Trending{Items: make([]models.TrendingItem, 0, len(items))}
	for _, it := range items {
		if it != nil {
			out.Items = append(out.Items, *it)
		}
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].Change5dPct > out.Items[j].Change5dPct
	})
	if len(out.Items) > limit {
		out.Items = out.Items[:limit]
	}
	return out, nil
}

// Refresh recomputes every configured refresh ticker, bypassing the inbound
// limiter and cache reads. Per-ticker failures are logged and joined.
func (s *AnalysisService) Refresh(ctx context.Context) error {
	start := time.Now()
	var (
		mu   sync.Mutex
		errs []error
	)
	s.fanOut(ctx, s.cfg.RefreshTickers, func(_ int, ticker string) {
		if err := s.RefreshTicker(ctx, ticker, SourceScheduler); err != nil {
			s.log.Warn("refresh failed", logger.String("ticker", ticker), logger.Error(err))
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			mu.Unlock()
		}
	})
	s.metrics.RecordLatency("refresh", time.Since(start).Seconds())
	s.log.Info("refresh cycle done",
		logger.Int("tickers", len(s.cfg.RefreshTickers)),
		logger.Int("failed", len(errs)),
		logger.Duration("took", time.Since(start)))
	return errors.Join(errs...)
}

// fanOut runs fn for every ticker with at most FanOut in flight. fn reports
// its own failures; the group never cancels early.
func (s *AnalysisService) fanOut(ctx context.Context, tickers []string, fn func(i int, ticker string)) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanOut)
	for i, t := range tickers {
		g.Go(func() error {
			fn(i, t)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *AnalysisService) uptime() int64 {
	return int64(s.now().Sub(s.started) / time.Second)
}

func (s *AnalysisService) Health() models.HealthStatus {
	return models.HealthStatus{
		Status:      "healthy",
		Uptime:      s.uptime(),
		CacheStats:  s.cache.Stats(),
		RateLimiter: s.limiter.Stats(),
	}
}

func (s *AnalysisService) Stats() models.ServiceStats {
	return models.ServiceStats{
		RateLimiter: s.limiter.Stats(),
		Cache:       s.cache.Stats(),
		Uptime:      s.uptime(),
	}
}

func (s *AnalysisService) CacheStats() models.CacheStats { return s.cache.Stats() }

func (s *AnalysisService) RateLimitStats() models.RateLimitStats { return s.limiter.Stats() }

func changePct(last, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (last - prev) / prev * 100
}

func round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}
