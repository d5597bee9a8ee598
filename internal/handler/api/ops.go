package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "OddsFlow/internal/domain/models"
	domrepo "OddsFlow/internal/domain/repository"
	"OddsFlow/internal/service/cache"
	"OddsFlow/internal/usecase"
	xhttp "OddsFlow/pkg/http"
	xlogger "OddsFlow/pkg/logger"
	"OddsFlow/pkg/queue"
)

const viewCacheTTL = 30 * time.Second

// OpsHandler exposes the read-only operational API over the warehouse.
type OpsHandler struct {
	logger *xlogger.Logger
	raw    domrepo.RawStore
	store  domrepo.MetricsStore
	cursor domrepo.CursorStore
	source domrepo.QuoteSource
	cache  cache.BytesCache
	runs   *queue.RedisQueue
}

func NewOpsHandler(logger *xlogger.Logger, raw domrepo.RawStore, store domrepo.MetricsStore,
	cursor domrepo.CursorStore, source domrepo.QuoteSource, c cache.BytesCache, runs *queue.RedisQueue) *OpsHandler {
	return &OpsHandler{logger: logger, raw: raw, store: store, cursor: cursor, source: source, cache: c, runs: runs}
}

func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/stats", h.Stats)
	g.GET("/watermark", h.Watermark)
	g.GET("/summary/daily", h.DailySummaries)
	g.GET("/facts", h.MatchFacts)
	g.GET("/sports", h.Sports)
	g.POST("/run", h.TriggerRun)
}

// Health reports warehouse and cursor store reachability.
func (h *OpsHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	deps := map[string]string{"clickhouse": "ok", "redis": "ok"}
	healthy := true
	if err := h.raw.Health(ctx); err != nil {
		deps["clickhouse"] = err.Error()
		healthy = false
	}
	if err := h.cursor.Health(ctx); err != nil {
		deps["redis"] = err.Error()
		healthy = false
	}
	if !healthy {
		return xhttp.ServiceUnavailableResponse(c, deps)
	}
	return xhttp.SuccessResponse(c, deps)
}

// Stats returns bronze table statistics.
func (h *OpsHandler) Stats(c echo.Context) error {
	st, err := h.raw.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("stats query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("stats query failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, st)
}

// Watermark returns the current transform cursor.
func (h *OpsHandler) Watermark(c echo.Context) error {
	wm, err := h.cursor.Watermark(c.Request().Context())
	if err != nil {
		h.logger.Error("watermark read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("watermark read failed").WithError(err))
	}
	resp := map[string]interface{}{"watermark": nil}
	if !wm.IsZero() {
		resp["watermark"] = wm.Format("2006-01-02")
	}
	return xhttp.SuccessResponse(c, resp)
}

// DailySummaries returns the gold daily rollup, cached briefly since
// the view only changes when a pipeline run rebuilds it.
func (h *OpsHandler) DailySummaries(c echo.Context) error {
	if b, ok, _ := h.cache.GetBytes("views:daily"); ok {
		return c.JSONBlob(http.StatusOK, b)
	}
	rows, err := h.store.DailySummaries(c.Request().Context())
	if err != nil {
		h.logger.Error("daily summaries query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("daily summaries query failed").WithError(err))
	}
	return h.respondCached(c, "views:daily", rows, int64(len(rows)))
}

// MatchFacts returns the gold per-match facts, newest first.
func (h *OpsHandler) MatchFacts(c echo.Context) error {
	req := &models.FactsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.store.MatchFacts(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("match facts query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("match facts query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Sports proxies the source's sport catalog.
func (h *OpsHandler) Sports(c echo.Context) error {
	if b, ok, _ := h.cache.GetBytes("source:sports"); ok {
		return c.JSONBlob(http.StatusOK, b)
	}
	sports, err := h.source.ListSports(c.Request().Context())
	if err != nil {
		h.logger.Error("sport catalog fetch failed", xlogger.Error(err))
		if errors.Is(err, models.ErrQuotaExhausted) {
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("odds source quota exhausted").WithError(err))
		}
		return xhttp.AppErrorResponse(c, xhttp.InternalError("sport catalog fetch failed").WithError(err))
	}
	return h.respondCached(c, "source:sports", sports, int64(len(sports)))
}

// TriggerRun enqueues an asynchronous pipeline run and returns the
// queued message id. The run executes in the consumer loop, never in
// the request handler.
func (h *OpsHandler) TriggerRun(c echo.Context) error {
	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id, err := h.runs.Publish(c.Request().Context(), usecase.RunJobType, req)
	if err != nil {
		h.logger.Error("run enqueue failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("run enqueue failed").WithError(err))
	}
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{
		"queued": id,
		"stage":  req.Stage,
	})
}

func (h *OpsHandler) respondCached(c echo.Context, key string, rows interface{}, total int64) error {
	body := xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: "OK",
		Data:    xhttp.ListDataResponse{Rows: rows, Total: total},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return xhttp.ListResponse(c, rows, total)
	}
	_ = h.cache.SetBytes(key, b, viewCacheTTL)
	return c.JSONBlob(http.StatusOK, b)
}
