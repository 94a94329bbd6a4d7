package api

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	models "PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/forecast"
	"PriceCast/internal/services/modelstore"
	"PriceCast/internal/usecase"
	xhttp "PriceCast/pkg/http"
	xlogger "PriceCast/pkg/logger"
)

// BarLister lists stored bars, newest first.
type BarLister interface {
	ListBars(ctx context.Context, symbol string, limit int) (*usecase.ListBarsResult, error)
}

// ForecastEchoHandler exposes forecasting and bar collection over HTTP.
type ForecastEchoHandler struct {
	logger    *xlogger.Logger
	forecasts domsvc.Forecaster
	bars      BarLister
	collector domsvc.BarCollector
	limiter   *ratelimit.Limiter

	defaultHorizon int
}

const defaultForecastHours = 6

func NewForecastEchoHandler(logger *xlogger.Logger, forecasts domsvc.Forecaster, bars BarLister, collector domsvc.BarCollector) *ForecastEchoHandler {
	return &ForecastEchoHandler{
		logger:         logger,
		forecasts:      forecasts,
		bars:           bars,
		collector:      collector,
		defaultHorizon: defaultForecastHours,
	}
}

// WithDefaultHorizon sets the horizon used when a forecast request has no hours.
func (h *ForecastEchoHandler) WithDefaultHorizon(hours int) *ForecastEchoHandler {
	h.defaultHorizon = hours
	return h
}

// WithCollectLimit throttles manual collection per symbol.
func (h *ForecastEchoHandler) WithCollectLimit(l *ratelimit.Limiter) *ForecastEchoHandler {
	h.limiter = l
	return h
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.GET("/importance", h.Importance)
	g.GET("/symbols", h.Symbols)
	g.GET("/bars", h.Bars)
	if h.collector != nil {
		g.POST("/bars/:symbol/collect", h.Collect)
	}
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	hours := h.defaultHorizon
	if req.Hours != nil {
		hours = *req.Hours
	}

	res, err := h.forecasts.Forecast(c.Request().Context(), req.Symbol, hours)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Importance(c echo.Context) error {
	req := &models.ImportanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecasts.FeatureImportance(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "importance", err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *ForecastEchoHandler) Symbols(c echo.Context) error {
	s := h.forecasts.Symbols()
	return xhttp.ListResponse(c, s, int64(len(s)))
}

func (h *ForecastEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.bars.ListBars(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "bars", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Collect(c echo.Context) error {
	req := &models.CollectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if h.limiter != nil && !h.limiter.Allow(strings.ToUpper(req.Symbol)) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("collection recently triggered for symbol").WithField("symbol"))
	}

	n, err := h.collector.Collect(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "collect", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":    req.Symbol,
		"collected": n,
	})
}

func (h *ForecastEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps the domain error taxonomy onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var se *xhttp.StatusError
	switch {
	case errors.Is(err, usecase.ErrUnsupportedSymbol):
		return xhttp.BadRequestError("unsupported symbol").WithField("symbol").WithError(err)
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return xhttp.BadRequestError("invalid forecast horizon").WithField("hours").WithError(err)
	case errors.Is(err, features.ErrInsufficientData):
		return xhttp.BadRequestError("not enough bars to build features").WithError(err)
	case errors.Is(err, modelstore.ErrModelNotFound):
		return xhttp.NotFoundError("no model artifact for symbol").WithError(err)
	case errors.Is(err, forecast.ErrModelNotFitted):
		return xhttp.ConflictError("model is not fitted").WithError(err)
	case errors.As(err, &se):
		return xhttp.BadGatewayError("exchange request failed").WithParam("upstream_status", se.Code).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
