package di

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	internalrepo "TraderBlock/internal/repository"
	"TraderBlock/internal/service/events"
	"TraderBlock/internal/service/stream"
	"TraderBlock/pkg/config"
	applogger "TraderBlock/pkg/logger"
	"TraderBlock/pkg/metrics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Upstream.TwelveData.APIKey = "demo"
	cfg.Cache.Snapshot.File = filepath.Join(t.TempDir(), "cache.json")
	return cfg
}

func TestProvideSnapshotStore(t *testing.T) {
	cfg := testConfig(t)

	s, err := ProvideSnapshotStore(cfg)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if _, ok := s.(*internalrepo.FileSnapshotStore); !ok {
		t.Fatalf("expected file store, got %T", s)
	}

	cfg.Cache.Snapshot.Backend = "none"
	s, err = ProvideSnapshotStore(cfg)
	if err != nil {
		t.Fatalf("none backend: %v", err)
	}
	if _, ok := s.(internalrepo.NoopSnapshotStore); !ok {
		t.Fatalf("expected noop store, got %T", s)
	}

	cfg.Cache.Snapshot.Backend = "tape"
	if _, err := ProvideSnapshotStore(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestProvideSeriesFetcher(t *testing.T) {
	cfg := testConfig(t)
	l := applogger.NewNop()

	f, err := ProvideSeriesFetcher(cfg, nil, metrics.Noop{}, l)
	if err != nil {
		t.Fatalf("twelvedata: %v", err)
	}
	if f.Name() != "twelvedata" {
		t.Fatalf("expected twelvedata, got %s", f.Name())
	}

	cfg.Upstream.Provider = "clickhouse"
	if _, err := ProvideSeriesFetcher(cfg, nil, metrics.Noop{}, l); err == nil {
		t.Fatalf("expected error without clickhouse client")
	}

	cfg.Upstream.Provider = "carrier-pigeon"
	if _, err := ProvideSeriesFetcher(cfg, nil, metrics.Noop{}, l); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestProvideAnalysisPublisher(t *testing.T) {
	cfg := testConfig(t)
	if p := ProvideAnalysisPublisher(cfg, nil, nil); p != nil {
		t.Fatalf("expected nil publisher without sinks, got %T", p)
	}

	hub := stream.NewHub(0, 0, 0, applogger.NewNop())
	defer hub.Close()
	p := ProvideAnalysisPublisher(cfg, hub, nil)
	m, ok := p.(events.Multi)
	if !ok || len(m) != 1 {
		t.Fatalf("expected one sink, got %#v", p)
	}
}

func TestProvideMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	if _, ok := ProvideMetrics(cfg, prometheus.NewRegistry()).(metrics.Noop); !ok {
		t.Fatalf("expected noop recorder when metrics are disabled")
	}
	cfg.Metrics.Enabled = true
	if _, ok := ProvideMetrics(cfg, prometheus.NewRegistry()).(*metrics.Recorder); !ok {
		t.Fatalf("expected prometheus recorder")
	}
}

func TestOptionalComponentsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Kafka.Enabled = false
	cfg.Stream.Enabled = false
	cfg.Scheduler.Enabled = false

	if p, err := ProvideKafkaProducer(cfg, prometheus.NewRegistry()); err != nil || p != nil {
		t.Fatalf("expected no producer, got %v %v", p, err)
	}
	if c, err := ProvideKafkaConsumer(cfg, applogger.NewNop(), prometheus.NewRegistry()); err != nil || c != nil {
		t.Fatalf("expected no consumer, got %v %v", c, err)
	}
	if h := ProvideHub(cfg, applogger.NewNop()); h != nil {
		t.Fatalf("expected no hub")
	}
	if s := ProvideScheduler(cfg, nil, applogger.NewNop()); s != nil {
		t.Fatalf("expected no scheduler")
	}
}
