package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"insight-service/internal/middleware"
	"insight-service/internal/model"
	"insight-service/internal/store"
	"insight-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AnalysisGenerator produces validated market analyses
type AnalysisGenerator interface {
	Generate(ctx context.Context, address, businessType string) (*model.AnalysisData, error)
}

// LiveGenerator produces ephemeral live insights
type LiveGenerator interface {
	GenerateLive(ctx context.Context, address, businessType string) (*model.LiveInsight, error)
}

// ReportHandler serves the report endpoint family: analyze, list, get,
// rename, and live insights. Reports are never deleted; the route set has no
// delete endpoint on purpose.
type ReportHandler struct {
	store     *store.ReportStore
	generator AnalysisGenerator
	live      LiveGenerator
}

// NewReportHandler creates a report handler
func NewReportHandler(s *store.ReportStore, generator AnalysisGenerator, live LiveGenerator) *ReportHandler {
	return &ReportHandler{store: s, generator: generator, live: live}
}

// Register wires the report routes onto the authenticated API group
func (h *ReportHandler) Register(api *echo.Group) {
	api.POST("/reports/analyze", h.Analyze)
	api.GET("/reports", h.List)
	api.GET("/reports/:id", h.Get)
	api.PATCH("/reports/:id", h.Rename)
	api.GET("/live-insights/:id", h.LiveInsights)
}

// Analyze generates a market analysis for the submitted address and business
// type and persists it as a new report owned by the caller.
func (h *ReportHandler) Analyze(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Address      string `json:"address"`
		BusinessType string `json:"businessType"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse analyze request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Address == "" || req.BusinessType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address and businessType are required"})
	}

	ctx := c.Request().Context()
	data, err := h.generator.Generate(ctx, req.Address, req.BusinessType)
	if err != nil {
		log.Error("Analysis generation failed",
			zap.String("address", req.Address),
			zap.String("business_type", req.BusinessType),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate analysis"})
	}

	blob, err := json.Marshal(data)
	if err != nil {
		log.Error("Failed to encode analysis data", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate analysis"})
	}

	report := model.Report{
		UserID:       claims.UserID,
		Address:      req.Address,
		BusinessType: req.BusinessType,
		Data:         datatypes.JSON(blob),
	}
	if err := h.store.Create(ctx, &report); err != nil {
		log.Error("Failed to persist report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save report"})
	}

	log.Info("Report created",
		zap.Uint("id", report.ID),
		zap.String("user_id", report.UserID),
		zap.String("business_type", report.BusinessType))

	return c.JSON(http.StatusCreated, report)
}

// List returns the caller's reports, newest first
func (h *ReportHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	reports, err := h.store.List(c.Request().Context(), claims.UserID)
	if err != nil {
		log.Error("Failed to list reports", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve reports"})
	}
	if reports == nil {
		reports = []model.Report{}
	}

	return c.JSON(http.StatusOK, reports)
}

// Get returns one report owned by the caller
func (h *ReportHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report ID"})
	}

	report, err := h.store.Get(c.Request().Context(), id, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		log.Error("Failed to retrieve report", zap.Uint("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve report"})
	}

	return c.JSON(http.StatusOK, report)
}

// Rename assigns a display name to a report. Only the name field changes.
func (h *ReportHandler) Rename(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report ID"})
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse rename request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	report, err := h.store.UpdateName(c.Request().Context(), id, claims.UserID, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		log.Error("Failed to rename report", zap.Uint("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update report"})
	}

	return c.JSON(http.StatusOK, report)
}

// LiveInsights generates an ephemeral weather/traffic/news snapshot for an
// existing report's location. Nothing is persisted.
func (h *ReportHandler) LiveInsights(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report ID"})
	}

	ctx := c.Request().Context()
	report, err := h.store.Get(ctx, id, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		log.Error("Failed to retrieve report", zap.Uint("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve report"})
	}

	insight, err := h.live.GenerateLive(ctx, report.Address, report.BusinessType)
	if err != nil {
		log.Error("Live insight generation failed", zap.Uint("report_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate live insights"})
	}

	return c.JSON(http.StatusOK, insight)
}

// parseID parses a positive integer route parameter
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("id must be positive")
	}
	return uint(id), nil
}
