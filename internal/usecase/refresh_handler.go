package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
	apphttp "TraderBlock/pkg/http"
	pkgkafka "TraderBlock/pkg/kafka"
	"TraderBlock/pkg/logger"
)

// TickerRefresher recomputes a single ticker.
type TickerRefresher interface {
	RefreshTicker(ctx context.Context, ticker, source string) error
}

// RefreshHandler consumes refresh requests ({"ticker": "..."}) and
// recomputes the ticker's analysis.
type RefreshHandler struct {
	topic    string
	svc      TickerRefresher
	metrics  repository.Metrics
	log      *logger.Logger
	validate *validator.Validate
}

func NewRefreshHandler(topic string, svc TickerRefresher, m repository.Metrics, l *logger.Logger) *RefreshHandler {
	return &RefreshHandler{topic: topic, svc: svc, metrics: m, log: l, validate: apphttp.NewValidator()}
}

func (h *RefreshHandler) Topic() string { return h.topic }

func (h *RefreshHandler) Handle(ctx context.Context, b []byte) error {
	var req models.RefreshRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode refresh request: %w", err)
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("invalid refresh request: %w", err)
	}

	start := time.Now()
	err := h.svc.RefreshTicker(ctx, req.Ticker, SourceKafka)
	h.metrics.RecordLatency("kafka_refresh", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_refresh")
		return err
	}
	h.log.Debug("refresh request handled",
		logger.String("ticker", models.NormalizeTicker(req.Ticker)),
		logger.String("trace_id", pkgkafka.TraceID(ctx)))
	return nil
}

var _ pkgkafka.MessageHandler = (*RefreshHandler)(nil)
