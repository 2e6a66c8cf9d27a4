package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"TraderBlock/internal/scheduler"
	"TraderBlock/internal/service/cache"
	"TraderBlock/internal/service/stream"
	"TraderBlock/internal/usecase"
	pkgch "TraderBlock/pkg/clickhouse"
	"TraderBlock/pkg/config"
	xhttp "TraderBlock/pkg/http"
	pkgkafka "TraderBlock/pkg/kafka"
	applogger "TraderBlock/pkg/logger"
)

// App owns every long-running component and their shutdown order.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	svc       *usecase.AnalysisService
	cache     *cache.Manager
	http      *xhttp.Server
	scheduler *scheduler.Scheduler
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	producer  *pkgkafka.Producer
	hub       *stream.Hub
	chClient  *pkgch.Client
}

// Components groups the optional parts of App. Nil members are skipped.
type Components struct {
	Scheduler *scheduler.Scheduler
	Consumer  *pkgkafka.Consumer
	Handler   pkgkafka.MessageHandler
	Producer  *pkgkafka.Producer
	Hub       *stream.Hub
	CHClient  *pkgch.Client
}

// New creates an App. svc, c and httpServer are required.
func New(cfg *config.Config, l *applogger.Logger, svc *usecase.AnalysisService, c *cache.Manager, httpServer *xhttp.Server, parts Components) *App {
	return &App{
		cfg:       cfg,
		log:       l,
		svc:       svc,
		cache:     c,
		http:      httpServer,
		scheduler: parts.Scheduler,
		consumer:  parts.Consumer,
		kh:        parts.Handler,
		producer:  parts.Producer,
		hub:       parts.Hub,
		chClient:  parts.CHClient,
	}
}

// Service exposes the analysis service for one-shot entrypoints.
func (a *App) Service() *usecase.AnalysisService { return a.svc }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.producer != nil && a.cfg.Logging.CollectorTopic != "" {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.Logging.CollectorFlush,
			CountThreshold: a.cfg.Logging.CollectorMaxKeys,
			Topic:          a.cfg.Logging.CollectorTopic,
			Publisher:      a.producer,
		})
	}

	if a.scheduler != nil {
		if err := a.scheduler.Register(); err != nil {
			return err
		}
		a.scheduler.Start()
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.http.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.Shutdown(ctx)
}

// RunOnce performs one refresh cycle without starting any listener. The
// lambda entrypoint calls it per invocation and keeps the App warm.
func (a *App) RunOnce(ctx context.Context) error {
	return a.svc.Refresh(ctx)
}

// Shutdown stops intake first, then flushes and closes infrastructure.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")
	var errs []error

	if a.http != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		if err := a.http.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
		cancel()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.hub != nil {
		_ = a.hub.Close()
	}

	// The collector publishes through the producer, so it goes first.
	a.log.RemoveCollector()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if err := a.cache.Close(); err != nil {
		a.log.Warn("snapshot store close error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
