package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		TrustProxy      bool          `yaml:"trust_proxy"`
	} `yaml:"server"`
	Logging struct {
		Level            string        `yaml:"level"`
		Format           string        `yaml:"format"`
		Output           string        `yaml:"output"`
		CollectorTopic   string        `yaml:"collector_topic"`
		CollectorFlush   time.Duration `yaml:"collector_flush"`
		CollectorMaxKeys int           `yaml:"collector_max_keys"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Upstream struct {
		Provider   string        `yaml:"provider"` // twelvedata, alpaca or clickhouse
		Timeout    time.Duration `yaml:"timeout"`
		TwelveData struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"twelvedata"`
		Alpaca struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
		} `yaml:"alpaca"`
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
			InitSchema       bool          `yaml:"init_schema"`
		} `yaml:"clickhouse"`
	} `yaml:"upstream"`
	RateLimit struct {
		PerMinute      int           `yaml:"per_minute"`
		PerDay         int           `yaml:"per_day"`
		OutboundCalls  int           `yaml:"outbound_calls"`
		OutboundWindow time.Duration `yaml:"outbound_window"`
	} `yaml:"ratelimit"`
	Cache struct {
		TTL      time.Duration `yaml:"ttl"`
		Snapshot struct {
			Backend string `yaml:"backend"` // file, redis, sqlite, dynamodb or none
			File    string `yaml:"file"`
			SQLite  string `yaml:"sqlite"`
			Redis   struct {
				Addr     string `yaml:"addr"`
				Password string `yaml:"password"`
				DB       int    `yaml:"db"`
				Prefix   string `yaml:"prefix"`
			} `yaml:"redis"`
			DynamoDB struct {
				Region string `yaml:"region"`
				Table  string `yaml:"table"`
			} `yaml:"dynamodb"`
		} `yaml:"snapshot"`
	} `yaml:"cache"`
	Analysis struct {
		OutputSize       int      `yaml:"output_size"`
		ChartLimit       int      `yaml:"chart_limit"`
		Benchmark        string   `yaml:"benchmark"`
		RiskFreeRate     float64  `yaml:"risk_free_rate"`
		Watchlist        []string `yaml:"watchlist"`
		RefreshTickers   []string `yaml:"refresh_tickers"`
		FanOut           int      `yaml:"fan_out"`
		DefaultSentiment float64  `yaml:"default_sentiment"`

		// ComputeTimeout bounds one shared recompute, independent of the
		// requests waiting on it.
		ComputeTimeout time.Duration `yaml:"compute_timeout"`
	} `yaml:"analysis"`
	Scheduler struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"scheduler"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic"`
		RefreshTopic string   `yaml:"refresh_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled      bool          `yaml:"enabled"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		PingInterval time.Duration `yaml:"ping_interval"`
		SendBuffer   int           `yaml:"send_buffer"`
	} `yaml:"stream"`
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, applies environment overrides and
// validates the result.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.ApplyDefaults()
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TWELVE_DATA_API_KEY"); v != "" {
		c.Upstream.TwelveData.APIKey = v
	}
	if v := getenv("ALPACA_API_KEY"); v != "" {
		c.Upstream.Alpaca.APIKey = v
	}
	if v := getenv("ALPACA_API_SECRET"); v != "" {
		c.Upstream.Alpaca.APISecret = v
	}
	if v := getenv("UPSTREAM_PROVIDER"); v != "" {
		c.Upstream.Provider = v
	}
	if v := getenv("SNAPSHOT_BACKEND"); v != "" {
		c.Cache.Snapshot.Backend = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Snapshot.Redis.Addr = v
	}
}

// ApplyDefaults fills zero values with the service defaults.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Upstream.Provider == "" {
		c.Upstream.Provider = "twelvedata"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 10
	}
	if c.RateLimit.PerDay == 0 {
		c.RateLimit.PerDay = 1000
	}
	if c.RateLimit.OutboundCalls == 0 {
		c.RateLimit.OutboundCalls = 8
	}
	if c.RateLimit.OutboundWindow == 0 {
		c.RateLimit.OutboundWindow = time.Minute
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Minute
	}
	if c.Cache.Snapshot.Backend == "" {
		c.Cache.Snapshot.Backend = "file"
	}
	if c.Cache.Snapshot.File == "" {
		c.Cache.Snapshot.File = "data/stock_cache.json"
	}
	if c.Cache.Snapshot.SQLite == "" {
		c.Cache.Snapshot.SQLite = "data/cache.db"
	}
	if c.Analysis.OutputSize == 0 {
		c.Analysis.OutputSize = 200
	}
	if c.Analysis.ChartLimit == 0 {
		c.Analysis.ChartLimit = 120
	}
	if c.Analysis.RiskFreeRate == 0 {
		c.Analysis.RiskFreeRate = 0.04
	}
	if c.Analysis.FanOut == 0 {
		c.Analysis.FanOut = 4
	}
	if c.Analysis.DefaultSentiment == 0 {
		c.Analysis.DefaultSentiment = 0.5
	}
	if c.Analysis.ComputeTimeout == 0 {
		c.Analysis.ComputeTimeout = time.Minute
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = time.Hour
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "analysis.computed"
	}
	if c.Kafka.RefreshTopic == "" {
		c.Kafka.RefreshTopic = "analysis.refresh"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "traderblock-refresh"
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = 10 * time.Second
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = 30 * time.Second
	}
	if c.Stream.SendBuffer == 0 {
		c.Stream.SendBuffer = 16
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Upstream.Provider {
	case "twelvedata":
		if c.Upstream.TwelveData.APIKey == "" {
			return fmt.Errorf("upstream.twelvedata.api_key is required")
		}
	case "alpaca":
		if c.Upstream.Alpaca.APIKey == "" || c.Upstream.Alpaca.APISecret == "" {
			return fmt.Errorf("upstream.alpaca.api_key and api_secret are required")
		}
	case "clickhouse":
		if c.Upstream.ClickHouse.Host == "" {
			return fmt.Errorf("upstream.clickhouse.host is required")
		}
	default:
		return fmt.Errorf("upstream.provider must be 'twelvedata', 'alpaca' or 'clickhouse', got '%s'", c.Upstream.Provider)
	}

	switch c.Cache.Snapshot.Backend {
	case "file", "sqlite", "none":
	case "redis":
		if c.Cache.Snapshot.Redis.Addr == "" {
			return fmt.Errorf("cache.snapshot.redis.addr is required")
		}
	case "dynamodb":
		if c.Cache.Snapshot.DynamoDB.Table == "" {
			return fmt.Errorf("cache.snapshot.dynamodb.table is required")
		}
	default:
		return fmt.Errorf("cache.snapshot.backend must be one of file, redis, sqlite, dynamodb, none; got '%s'", c.Cache.Snapshot.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Analysis.RiskFreeRate < 0 || c.Analysis.RiskFreeRate > 1 {
		return fmt.Errorf("analysis.risk_free_rate must be within [0,1]")
	}
	if c.Analysis.DefaultSentiment < 0 || c.Analysis.DefaultSentiment > 1 {
		return fmt.Errorf("analysis.default_sentiment must be within [0,1]")
	}
	return nil
}
