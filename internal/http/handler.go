package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"report-service/internal/export"
	"report-service/internal/http/middleware"
	"report-service/internal/model"
	"report-service/internal/service"
)

const (
	viewIDHeader   = "X-View-ID"
	portraitDigits = 2
)

type RankingReporter interface {
	Ranking(ctx context.Context, principal model.Principal, view model.RankingView, viewID string) (*model.RankingTable, error)
}

type PortraitReporter interface {
	Portrait(ctx context.Context, principal model.Principal, view model.PortraitView) (*model.PortraitPage, error)
}

type Lookups interface {
	Pages(ctx context.Context) ([]model.ReportPage, error)
	CarTypes(ctx context.Context) ([]model.CarTypeBucket, error)
	Cities(ctx context.Context, principal model.Principal) ([]model.City, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	ranking  RankingReporter
	portrait PortraitReporter
	lookups  Lookups
	health   Pinger
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

func NewHandler(ranking RankingReporter, portrait PortraitReporter, lookups Lookups, health Pinger, loc *time.Location, log zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		ranking:  ranking,
		portrait: portrait,
		lookups:  lookups,
		health:   health,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/healthz", h.healthz)

	protected := r.Group("/reports")
	protected.Use(authMiddleware)

	protected.GET("/pages", h.listPages)
	protected.GET("/car-types", h.listCarTypes)
	protected.GET("/cities", h.listCities)
	protected.GET("/ranking/*page", h.getRanking)
	protected.GET("/ranking-export/*page", h.exportRanking)
	protected.GET("/portrait", h.getPortrait)
	protected.GET("/portrait/export", h.exportPortrait)
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listPages(c *gin.Context) {
	pages, err := h.lookups.Pages(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(pages))
}

func (h *Handler) listCarTypes(c *gin.Context) {
	buckets, err := h.lookups.CarTypes(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(buckets))
}

func (h *Handler) listCities(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	cities, err := h.lookups.Cities(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(cities))
}

func (h *Handler) getRanking(c *gin.Context) {
	table, ok := h.loadRanking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, successResponse(table))
}

func (h *Handler) exportRanking(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	table, ok := h.loadRanking(c)
	if !ok {
		return
	}
	h.writeExport(c, format, service.RankingExport(table, h.now()))
}

func (h *Handler) loadRanking(c *gin.Context) (*model.RankingTable, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return nil, false
	}

	view, err := parseRankingView(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return nil, false
	}

	table, err := h.ranking.Ranking(c.Request.Context(), principal, view, c.GetHeader(viewIDHeader))
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return table, true
}

func (h *Handler) getPortrait(c *gin.Context) {
	page, ok := h.loadPortrait(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, successResponse(page))
}

func (h *Handler) exportPortrait(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	page, ok := h.loadPortrait(c)
	if !ok {
		return
	}
	h.writeExport(c, format, service.PortraitExport(page, portraitDigits, h.now()))
}

func (h *Handler) loadPortrait(c *gin.Context) (*model.PortraitPage, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return nil, false
	}

	view, err := parsePortraitView(c, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return nil, false
	}

	page, err := h.portrait.Portrait(c.Request.Context(), principal, view)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return page, true
}

func (h *Handler) writeExport(c *gin.Context, format export.Format, payload model.ExportPayload) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, payload); err != nil {
		h.log.Error().Err(err).Str("format", string(format)).Msg("export failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	name := export.Filename(payload, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report.%s"; filename*=UTF-8''%s`,
		format, url.PathEscape(name)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func parseRankingView(c *gin.Context) (model.RankingView, error) {
	view := model.RankingView{
		Page:    strings.Trim(c.Param("page"), "/"),
		CarType: strings.TrimSpace(c.Query("car_type")),
	}
	if view.Page == "" {
		return view, errors.New("report page is required")
	}

	period, ok := model.ParsePeriodKind(c.Query("period"))
	if !ok {
		return view, fmt.Errorf("invalid period %q", c.Query("period"))
	}
	view.Period = period

	cursor, err := parsePositiveInt(c.Query("cursor"), 1)
	if err != nil {
		return view, fmt.Errorf("invalid cursor: %w", err)
	}
	view.Cursor = cursor

	return view, nil
}

func parsePortraitView(c *gin.Context, loc *time.Location) (model.PortraitView, error) {
	view := model.PortraitView{
		City:    strings.TrimSpace(c.Query("city")),
		CarType: strings.TrimSpace(c.Query("car_type")),
	}

	if raw := strings.TrimSpace(c.Query("start_at")); raw != "" {
		start, err := model.ParseDay(raw, loc)
		if err != nil {
			return view, err
		}
		view.Range.Start = start
	}
	if raw := strings.TrimSpace(c.Query("end_at")); raw != "" {
		end, err := model.ParseDay(raw, loc)
		if err != nil {
			return view, err
		}
		view.Range.End = end
	}

	current, err := parsePositiveInt(c.Query("current"), 1)
	if err != nil {
		return view, fmt.Errorf("invalid current: %w", err)
	}
	pageSize, err := parsePositiveInt(c.Query("page_size"), 0)
	if err != nil {
		return view, fmt.Errorf("invalid page_size: %w", err)
	}
	view.Current = current
	view.PageSize = pageSize

	return view, nil
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%d must be at least 1", n)
	}
	return n, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStaleRequest):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, context.Canceled):
		h.log.Debug().Str("path", c.FullPath()).Msg("client went away")
		c.AbortWithStatus(499)
	case errors.Is(err, service.ErrFetch), errors.Is(err, service.ErrKeyCollision):
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("report data unavailable")
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "report data unavailable",
			"data":  gin.H{"rows": []any{}, "headers": []any{}},
		})
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
