package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"MemePulse/internal/domain/models"
	"MemePulse/internal/handler/ws"
	"MemePulse/internal/usecase"
	pkgconfig "MemePulse/pkg/config"
	xhttp "MemePulse/pkg/http"
	xlogger "MemePulse/pkg/logger"
)

// AlertsHandler exposes the scanner, the detector and the hype pipeline
// over HTTP.
type AlertsHandler struct {
	logger    *xlogger.Logger
	detector  *usecase.Detector
	scanner   *usecase.Scanner
	processor *usecase.AlertProcessor
	hype      *usecase.HypeUseCase
	hub       *ws.Hub
	cfg       *pkgconfig.Config
	started   time.Time
}

var _ xhttp.Handler = (*AlertsHandler)(nil)

func NewAlertsHandler(
	logger *xlogger.Logger,
	detector *usecase.Detector,
	scanner *usecase.Scanner,
	processor *usecase.AlertProcessor,
	hype *usecase.HypeUseCase,
	hub *ws.Hub,
	cfg *pkgconfig.Config,
) *AlertsHandler {
	return &AlertsHandler{
		logger:    logger,
		detector:  detector,
		scanner:   scanner,
		processor: processor,
		hype:      hype,
		hub:       hub,
		cfg:       cfg,
		started:   time.Now(),
	}
}

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/ws/alerts", h.hub.Serve)

	g := e.Group("/api")
	g.GET("/alerts/scan", h.Scan)
	g.GET("/alerts/cached", h.CachedAlerts)
	g.GET("/alerts/:ticker", h.TickerAlert)
	g.GET("/trending/hype", h.TrendingHype)
	g.GET("/trending/cached_hype", h.CachedHype)
	g.GET("/strategies/thematic", h.Thematic)
}

func (h *AlertsHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, echo.Map{
		"service":   "memepulse",
		"watchlist": h.cfg.Detector.Watchlist,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *AlertsHandler) Health(c echo.Context) error {
	status := "ok"
	if err := h.processor.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check degraded", xlogger.Error(err))
		status = "degraded"
	}
	return xhttp.SuccessResponse(c, echo.Map{
		"status":     status,
		"ws_clients": h.hub.ClientCount(),
	})
}

// Scan runs the watchlist end to end: score, persist or publish, broadcast.
func (h *AlertsHandler) Scan(c echo.Context) error {
	ctx := c.Request().Context()

	results := h.scanner.ScanWatchlist(ctx, h.cfg.Detector.Watchlist)
	if err := h.processor.ProcessBatch(ctx, results); err != nil {
		h.logger.Error("alert processing failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	for i := range results {
		if results[i].AlertLevel == models.AlertCritical || results[i].AlertLevel == models.AlertHigh {
			h.hub.Broadcast(&results[i])
		}
	}

	return xhttp.SuccessResponse(c, echo.Map{
		"scanned": len(h.cfg.Detector.Watchlist),
		"alerts":  results,
	})
}

func (h *AlertsHandler) CachedAlerts(c echo.Context) error {
	req := &models.CachedAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alerts, err := h.processor.CachedAlerts(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("cached alerts read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *AlertsHandler) TickerAlert(c echo.Context) error {
	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.detector.EarlyWarningScore(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Error("ticker score failed",
			xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AlertsHandler) TrendingHype(c echo.Context) error {
	scores, err := h.hype.TrendingHype(c.Request().Context())
	if err != nil {
		h.logger.Error("hype refresh failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, scores, int64(len(scores)))
}

func (h *AlertsHandler) CachedHype(c echo.Context) error {
	scores, err := h.hype.CachedHype(c.Request().Context())
	if err != nil {
		h.logger.Error("cached hype read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, scores, int64(len(scores)))
}

func (h *AlertsHandler) Thematic(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.cfg.Thematic)
}
