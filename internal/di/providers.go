package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"TraderBlock/internal/domain/repository"
	"TraderBlock/internal/handler/api"
	internalrepo "TraderBlock/internal/repository"
	"TraderBlock/internal/scheduler"
	"TraderBlock/internal/service/alpaca"
	"TraderBlock/internal/service/cache"
	"TraderBlock/internal/service/events"
	"TraderBlock/internal/service/ratelimit"
	"TraderBlock/internal/service/stream"
	"TraderBlock/internal/service/twelvedata"
	"TraderBlock/internal/usecase"
	pkgcache "TraderBlock/pkg/cache"
	pkgch "TraderBlock/pkg/clickhouse"
	"TraderBlock/pkg/config"
	xhttp "TraderBlock/pkg/http"
	pkgkafka "TraderBlock/pkg/kafka"
	applogger "TraderBlock/pkg/logger"
	"TraderBlock/pkg/metrics"
	"TraderBlock/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry returns the registry scraped at /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	return metrics.New(reg)
}

// ProvideClickHouseClient connects only when ClickHouse is the upstream.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Upstream.Provider != "clickhouse" {
		return nil, nil
	}
	ch := cfg.Upstream.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if !ch.InitSchema {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.DailyBarsSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSeriesFetcher selects the upstream provider and wraps it in the
// outbound limiter.
func ProvideSeriesFetcher(cfg *config.Config, ch *pkgch.Client, m repository.Metrics, l *applogger.Logger) (repository.SeriesFetcher, error) {
	var next repository.SeriesFetcher
	switch cfg.Upstream.Provider {
	case "twelvedata":
		next = twelvedata.New(cfg.Upstream.TwelveData.APIKey, cfg.Upstream.TwelveData.BaseURL, cfg.Upstream.Timeout)
	case "alpaca":
		next = alpaca.New(cfg.Upstream.Alpaca.APIKey, cfg.Upstream.Alpaca.APISecret)
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse provider without client")
		}
		next = internalrepo.NewCHSeriesStore(ch, l)
	default:
		return nil, fmt.Errorf("unknown upstream provider %q", cfg.Upstream.Provider)
	}
	out := ratelimit.NewOutbound(cfg.RateLimit.OutboundCalls, cfg.RateLimit.OutboundWindow)
	return ratelimit.NewRateLimitedFetcher(next, out, m), nil
}

// ProvideSnapshotStore opens the configured cache snapshot backend.
func ProvideSnapshotStore(cfg *config.Config) (repository.SnapshotStore, error) {
	snap := cfg.Cache.Snapshot
	switch snap.Backend {
	case "", "file":
		return internalrepo.NewFileSnapshotStore(snap.File), nil
	case "sqlite":
		s, err := internalrepo.NewSQLiteSnapshotStore(snap.SQLite)
		if err != nil {
			return nil, fmt.Errorf("sqlite snapshot: %w", err)
		}
		return s, nil
	case "redis":
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(snap.Redis.Addr),
			pkgcache.WithRedisPassword(snap.Redis.Password),
			pkgcache.WithRedisDB(snap.Redis.DB),
			pkgcache.WithRedisPrefix(snap.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis snapshot: %w", err)
		}
		return internalrepo.NewRedisSnapshotStore(rc), nil
	case "dynamodb":
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		s, err := internalrepo.NewDynamoSnapshotStore(ctx, snap.DynamoDB.Region, snap.DynamoDB.Table)
		if err != nil {
			return nil, fmt.Errorf("dynamodb snapshot: %w", err)
		}
		return s, nil
	case "none":
		return internalrepo.NoopSnapshotStore{}, nil
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", snap.Backend)
}

// ProvideCacheManager loads the persisted snapshot into a fresh cache.
func ProvideCacheManager(cfg *config.Config, store repository.SnapshotStore, m repository.Metrics, l *applogger.Logger) *cache.Manager {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	return cache.NewManager(ctx, store, cfg.Cache.TTL, l, cache.WithMetrics(m))
}

func ProvideInboundLimiter(cfg *config.Config) *ratelimit.Inbound {
	return ratelimit.NewInbound(cfg.RateLimit.PerMinute, cfg.RateLimit.PerDay)
}

// ProvideHub returns nil when websocket streaming is disabled.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *stream.Hub {
	if !cfg.Stream.Enabled {
		return nil
	}
	return stream.NewHub(cfg.Stream.WriteTimeout, cfg.Stream.PingInterval, cfg.Stream.SendBuffer, l)
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithWriteTimeout(p.WriteTimeout),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAnalysisPublisher fans analysis events out to whichever sinks are
// enabled. It returns nil when there are none.
func ProvideAnalysisPublisher(cfg *config.Config, hub *stream.Hub, producer *pkgkafka.Producer) repository.AnalysisPublisher {
	var sinks events.Multi
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if producer != nil && cfg.Kafka.EventsTopic != "" {
		sinks = append(sinks, events.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic))
	}
	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

func ProvideAnalysisService(
	cfg *config.Config,
	fetcher repository.SeriesFetcher,
	c *cache.Manager,
	limiter *ratelimit.Inbound,
	pub repository.AnalysisPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisService {
	a := cfg.Analysis
	return usecase.NewAnalysisService(fetcher, c, limiter, m, l, usecase.AnalysisConfig{
		OutputSize:       a.OutputSize,
		ChartLimit:       a.ChartLimit,
		Benchmark:        a.Benchmark,
		RiskFreeRate:     a.RiskFreeRate,
		Watchlist:        a.Watchlist,
		RefreshTickers:   a.RefreshTickers,
		FanOut:           a.FanOut,
		DefaultSentiment: a.DefaultSentiment,
		ComputeTimeout:   a.ComputeTimeout,
	}, usecase.WithPublisher(pub))
}

func ProvideAnalysisHandler(l *applogger.Logger, svc *usecase.AnalysisService, hub *stream.Hub, m repository.Metrics) *api.AnalysisHandler {
	return api.NewAnalysisHandler(l, svc, hub, m)
}

// ProvideHTTPServer mounts the analysis API on the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.AnalysisHandler, l *applogger.Logger, reg *prometheus.Registry) *xhttp.Server {
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithTrustProxy(cfg.Server.TrustProxy),
		xhttp.WithRegistry(reg),
	)
}

// ProvideScheduler returns nil when periodic refresh is disabled.
func ProvideScheduler(cfg *config.Config, svc *usecase.AnalysisService, l *applogger.Logger) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return scheduler.New(svc, cfg.Scheduler.Interval, l)
}

// ProvideKafkaConsumer creates the refresh-request consumer, or nil when
// Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RefreshTopic == "" {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

func ProvideRefreshHandler(cfg *config.Config, svc *usecase.AnalysisService, m repository.Metrics, l *applogger.Logger) *usecase.RefreshHandler {
	return usecase.NewRefreshHandler(cfg.Kafka.RefreshTopic, svc, m, l)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.AnalysisService,
	c *cache.Manager,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.RefreshHandler,
	producer *pkgkafka.Producer,
	hub *stream.Hub,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, svc, c, httpServer, server.Components{
		Scheduler: sched,
		Consumer:  consumer,
		Handler:   kh,
		Producer:  producer,
		Hub:       hub,
		CHClient:  chClient,
	})
}
