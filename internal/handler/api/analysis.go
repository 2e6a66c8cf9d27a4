package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
	"TraderBlock/internal/service/ratelimit"
	"TraderBlock/internal/service/stream"
	"TraderBlock/internal/usecase"
	xhttp "TraderBlock/pkg/http"
	xlogger "TraderBlock/pkg/logger"
)

const defaultTrendingLimit = 10

// AnalysisHandler serves the analysis API under /api.
type AnalysisHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.AnalysisService
	hub     *stream.Hub
	metrics repository.Metrics
}

// NewAnalysisHandler builds the handler. hub may be nil, in which case the
// websocket route is not registered.
func NewAnalysisHandler(logger *xlogger.Logger, svc *usecase.AnalysisService, hub *stream.Hub, m repository.Metrics) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, svc: svc, hub: hub, metrics: m}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/stats", h.Stats)
	g.GET("/cache/stats", h.CacheStats)
	g.GET("/ratelimit/stats", h.RateLimitStats)
	g.GET("/stock/:ticker", h.Stock)
	g.GET("/indicators/:ticker", h.Indicators)
	g.GET("/watchlist", h.Watchlist)
	g.POST("/watchlist/refresh", h.RefreshWatchlist)
	g.GET("/trending", h.Trending)
	if h.hub != nil {
		g.GET("/ws", h.Stream)
	}
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.JSONResponse(c, h.svc.Health())
}

func (h *AnalysisHandler) Stats(c echo.Context) error {
	return xhttp.JSONResponse(c, h.svc.Stats())
}

func (h *AnalysisHandler) CacheStats(c echo.Context) error {
	return xhttp.JSONResponse(c, h.svc.CacheStats())
}

func (h *AnalysisHandler) RateLimitStats(c echo.Context) error {
	return xhttp.JSONResponse(c, h.svc.RateLimitStats())
}

func (h *AnalysisHandler) Stock(c echo.Context) error {
	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.StockAnalysis(c.Request().Context(), c.RealIP(), req.Ticker)
	if err != nil {
		return h.fail(c, "stock", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.JSONResponse(c, res)
}

func (h *AnalysisHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Indicators(c.Request().Context(), c.RealIP(), req.Ticker, req.Limit)
	if err != nil {
		return h.fail(c, "indicators", err)
	}
	return xhttp.JSONResponse(c, res)
}

func (h *AnalysisHandler) Watchlist(c echo.Context) error {
	res, err := h.svc.Watchlist(c.Request().Context(), c.RealIP())
	if err != nil {
		return h.fail(c, "watchlist", err)
	}
	return xhttp.JSONResponse(c, res)
}

func (h *AnalysisHandler) RefreshWatchlist(c echo.Context) error {
	res, err := h.svc.RefreshWatchlist(c.Request().Context(), c.RealIP())
	if err != nil {
		return h.fail(c, "watchlist_refresh", err)
	}
	return xhttp.JSONResponse(c, res)
}

func (h *AnalysisHandler) Trending(c echo.Context) error {
	// out-of-range limits are clamped by the service, not rejected
	limit := defaultTrendingLimit
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_INT", Field: "limit", Message: "limit must be an integer"}})
	}
	res, err := h.svc.Trending(c.Request().Context(), c.RealIP(), limit)
	if err != nil {
		return h.fail(c, "trending", err)
	}
	return xhttp.JSONResponse(c, res)
}

func (h *AnalysisHandler) Stream(c echo.Context) error {
	if err := h.hub.ServeWS(c.Response(), c.Request()); err != nil {
		h.logger.Warn("stream upgrade failed", xlogger.Error(err))
	}
	return nil
}

func (h *AnalysisHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.metrics.RecordError(op)
		h.logger.Error(op+" failed", xlogger.String("client", c.RealIP()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto API errors.
func toAppError(err error) *xhttp.AppError {
	var rl *ratelimit.RateLimitExceeded
	var ue *domain.UpstreamError
	switch {
	case errors.As(err, &rl):
		return xhttp.TooManyRequestsError(rl.Scope).WithParam("limit", rl.Limit).WithError(err)
	case errors.Is(err, domain.ErrNoData):
		return xhttp.NotFoundError("no data for ticker").WithError(err)
	case errors.As(err, &ue):
		return xhttp.BadGatewayError("market data provider unavailable").WithParam("provider", ue.Provider).WithError(err)
	default:
		return xhttp.InternalError("something went wrong").WithError(err)
	}
}
