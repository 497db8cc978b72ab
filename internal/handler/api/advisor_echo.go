package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "StockSage/internal/domain/models"
	domrepo "StockSage/internal/domain/repository"
	dservice "StockSage/internal/domain/service"
	imetrics "StockSage/internal/service/metrics"
	"StockSage/internal/usecase"
	xhttp "StockSage/pkg/http"
	xlogger "StockSage/pkg/logger"
	"StockSage/pkg/util"

	"github.com/labstack/echo/v4"
)

// AdvisorEchoHandler exposes the advisor use cases over Echo.
type AdvisorEchoHandler struct {
	logger  *xlogger.Logger
	advisor *usecase.Advisor
	history domrepo.RecommendationHistory
}

func NewAdvisorEchoHandler(logger *xlogger.Logger, advisor *usecase.Advisor, history domrepo.RecommendationHistory) *AdvisorEchoHandler {
	imetrics.Register()
	return &AdvisorEchoHandler{logger: logger, advisor: advisor, history: history}
}

func (h *AdvisorEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/recommendations/recent", h.RecentRecommendations)
	g.GET("/forecast", h.Forecast)
	g.GET("/position-size", h.PositionSize)
	g.GET("/quote", h.Quote)
}

// Health pings the recommendation store when one is configured. A failing
// store degrades the report but never fails the endpoint.
func (h *AdvisorEchoHandler) Health(c echo.Context) error {
	out := map[string]string{"status": "ok"}
	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.history.Health(ctx); err != nil {
			h.logger.Warn("recommendation store unreachable", xlogger.Error(err))
			out["status"] = "degraded"
			out["store"] = "unreachable"
		} else {
			out["store"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *AdvisorEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	period, err := domrepo.ParsePeriod(req.Period)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}

	res, err := h.advisor.Analyze(c.Request().Context(), util.NormalizeSymbol(req.Symbol), models.RiskTier(req.Tolerance), period)
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	imetrics.AdvisorLatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) Recommendations(c echo.Context) error {
	start := time.Now()
	req := &models.RecommendationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.advisor.Recommendations(c.Request().Context(), models.RiskTier(req.Tolerance), req.Max, req.Exclude)
	if err != nil {
		return h.fail(c, "recommendations", err)
	}
	imetrics.AdvisorLatency.WithLabelValues("recommendations").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) RecentRecommendations(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_HISTORY_DISABLED", "", "recommendation history is not configured", http.StatusServiceUnavailable))
	}

	start := time.Now()
	req := &models.RecentRecommendationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	recs, err := h.history.Recent(c.Request().Context(), util.NormalizeSymbol(req.Symbol), req.Limit)
	if err != nil {
		return h.fail(c, "recent_recommendations", err)
	}
	imetrics.AdvisorLatency.WithLabelValues("recent_recommendations").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, recs)
}

func (h *AdvisorEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	period, err := domrepo.ParsePeriod(req.Period)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}

	res, err := h.advisor.Forecast(c.Request().Context(), util.NormalizeSymbol(req.Symbol), req.Confidence, period)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	imetrics.AdvisorLatency.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) PositionSize(c echo.Context) error {
	start := time.Now()
	req := &models.PositionSizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbol := util.NormalizeSymbol(req.Symbol)
	size, riskMetrics, err := h.advisor.PositionSize(c.Request().Context(), symbol, req.PortfolioValue, models.RiskTier(req.Tolerance))
	if err != nil {
		return h.fail(c, "position_size", err)
	}
	imetrics.AdvisorLatency.WithLabelValues("position_size").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":   symbol,
		"position": size,
		"risk":     riskMetrics,
	})
}

func (h *AdvisorEchoHandler) Quote(c echo.Context) error {
	symbol := util.NormalizeSymbol(c.QueryParam("symbol"))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("symbol is required"))
	}
	bar, err := h.advisor.Latest(c.Request().Context(), symbol)
	if err != nil {
		return h.fail(c, "quote", err)
	}
	return xhttp.SuccessResponse(c, bar)
}

// fail maps domain errors onto HTTP responses. External dependency failures
// become 502s; everything else is internal.
func (h *AdvisorEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	imetrics.AdvisorErrors.WithLabelValues(endpoint).Inc()
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))

	var extErr *dservice.ExternalError
	if errors.As(err, &extErr) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_UPSTREAM", "", extErr.Error(), 502).WithError(err))
	}
	return xhttp.AppErrorResponse(c, err)
}
