package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	domrepo "TraderBlock/internal/domain/repository"
	pkgch "TraderBlock/pkg/clickhouse"
	applogger "TraderBlock/pkg/logger"
)

// DailyBarsSchema creates the table read by CHSeriesStore.
var DailyBarsSchema = []string{
	`CREATE DATABASE IF NOT EXISTS traderblock`,
	`CREATE TABLE IF NOT EXISTS traderblock.daily_bars (
        symbol LowCardinality(String),
        day    DateTime,
        open   Float64,
        high   Float64,
        low    Float64,
        close  Float64,
        volume Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, day)`,
	`CREATE TABLE IF NOT EXISTS traderblock.weekly_bars (
        symbol LowCardinality(String),
        day    DateTime,
        open   Float64,
        high   Float64,
        low    Float64,
        close  Float64,
        volume Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, day)`,
}

// CHSeriesStore serves daily bars from ClickHouse as an upstream provider.
type CHSeriesStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, l *applogger.Logger) *CHSeriesStore {
	return &CHSeriesStore{db: ch.DB(), l: l}
}

func (s *CHSeriesStore) Name() string { return "clickhouse" }

// FetchSeries returns the latest outputSize bars in ascending order.
func (s *CHSeriesStore) FetchSeries(ctx context.Context, symbol string, interval domrepo.Interval, outputSize int) ([]models.Bar, error) {
	start := time.Now()
	table, err := tableForInterval(interval)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT day, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY day DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, outputSize)
	if err != nil {
		s.l.Error("clickhouse fetch_series query error",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("limit", outputSize),
			applogger.Error(err),
		)
		return nil, domain.NewUpstreamError(s.Name(), symbol, err)
	}
	defer rows.Close()

	bars := make([]models.Bar, 0, outputSize)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, domain.NewUpstreamError(s.Name(), symbol, fmt.Errorf("scan bar: %w", err))
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewUpstreamError(s.Name(), symbol, fmt.Errorf("rows: %w", err))
	}
	// reverse to ASC
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	s.l.Debug("clickhouse fetch_series ok",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return bars, nil
}

func tableForInterval(iv domrepo.Interval) (string, error) {
	switch iv {
	case domrepo.Interval1Day:
		return "traderblock.daily_bars", nil
	case domrepo.Interval1Week:
		return "traderblock.weekly_bars", nil
	default:
		return "", fmt.Errorf("unsupported interval: %s", iv)
	}
}
