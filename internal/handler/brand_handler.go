package handler

import (
	"context"
	"errors"
	"net/http"

	"insight-service/internal/middleware"
	"insight-service/internal/model"
	"insight-service/internal/store"
	"insight-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatementGenerator produces a brand statement for one kind
type StatementGenerator interface {
	Generate(ctx context.Context, kind model.BrandKind, input string) (string, error)
}

// BrandHandler serves all five brand-strategy endpoint families through one
// generic implementation parameterized by the kind registry. Status codes and
// error envelopes are identical across families.
type BrandHandler struct {
	store     *store.BrandStore
	generator StatementGenerator
}

// NewBrandHandler creates a brand handler
func NewBrandHandler(s *store.BrandStore, generator StatementGenerator) *BrandHandler {
	return &BrandHandler{store: s, generator: generator}
}

// Register wires generate/save/list/update/delete routes for every brand kind
func (h *BrandHandler) Register(api *echo.Group) {
	for _, kind := range model.BrandKinds {
		kind := kind
		api.POST("/generate-"+kind.Name, h.generate(kind))
		api.POST("/"+kind.PathPlural, h.create(kind))
		api.GET("/"+kind.PathPlural, h.list(kind))
		api.PATCH("/"+kind.PathPlural+"/:id", h.update(kind))
		api.DELETE("/"+kind.PathPlural+"/:id", h.remove(kind))
	}
}

// generate invokes the statement generator; nothing is persisted
func (h *BrandHandler) generate(kind model.BrandKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		var req struct {
			Input string `json:"input"`
		}
		if err := c.Bind(&req); err != nil {
			log.Error("Failed to parse generate request", zap.String("kind", kind.Name), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		if req.Input == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "input is required"})
		}

		statement, err := h.generator.Generate(c.Request().Context(), kind, req.Input)
		if err != nil {
			log.Error("Statement generation failed", zap.String("kind", kind.Name), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate " + kind.Name})
		}

		return c.JSON(http.StatusOK, echo.Map{kind.Field: statement})
	}
}

// create saves a generated statement together with its originating input
func (h *BrandHandler) create(kind model.BrandKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		claims, ok := middleware.CallerClaims(c)
		if !ok {
			log.Error("Failed to get user claims from context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		var body map[string]string
		if err := c.Bind(&body); err != nil {
			log.Error("Failed to parse save request", zap.String("kind", kind.Name), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		statement := body[kind.Field]
		originalInput := body["originalInput"]
		if statement == "" || originalInput == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": kind.Field + " and originalInput are required"})
		}

		entry, err := h.store.Create(c.Request().Context(), kind, claims.UserID, statement, originalInput)
		if err != nil {
			log.Error("Failed to save statement", zap.String("kind", kind.Name), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save " + kind.Name})
		}

		log.Info("Brand statement saved",
			zap.String("kind", kind.Name),
			zap.Uint("id", entry.ID),
			zap.String("user_id", entry.UserID))

		return c.JSON(http.StatusCreated, kind.Serialize(entry))
	}
}

// list returns the caller's saved statements of this kind, newest first
func (h *BrandHandler) list(kind model.BrandKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		claims, ok := middleware.CallerClaims(c)
		if !ok {
			log.Error("Failed to get user claims from context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		entries, err := h.store.List(c.Request().Context(), kind, claims.UserID)
		if err != nil {
			log.Error("Failed to list statements", zap.String("kind", kind.Name), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve " + kind.PathPlural})
		}

		out := make([]map[string]interface{}, 0, len(entries))
		for i := range entries {
			out = append(out, kind.Serialize(&entries[i]))
		}
		return c.JSON(http.StatusOK, out)
	}
}

// update replaces the statement text in place
func (h *BrandHandler) update(kind model.BrandKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		claims, ok := middleware.CallerClaims(c)
		if !ok {
			log.Error("Failed to get user claims from context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		id, err := parseID(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + kind.Name + " ID"})
		}

		var body map[string]string
		if err := c.Bind(&body); err != nil {
			log.Error("Failed to parse update request", zap.String("kind", kind.Name), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		statement := body[kind.Field]
		if statement == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": kind.Field + " is required"})
		}

		entry, err := h.store.Update(c.Request().Context(), kind, id, claims.UserID, statement)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": kind.Name + " not found"})
			}
			log.Error("Failed to update statement", zap.String("kind", kind.Name), zap.Uint("id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update " + kind.Name})
		}

		return c.JSON(http.StatusOK, kind.Serialize(entry))
	}
}

// remove deletes a statement. Deleting an id that no longer exists is still a
// 204: delete is idempotent.
func (h *BrandHandler) remove(kind model.BrandKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		claims, ok := middleware.CallerClaims(c)
		if !ok {
			log.Error("Failed to get user claims from context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		id, err := parseID(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + kind.Name + " ID"})
		}

		if err := h.store.Delete(c.Request().Context(), kind, id, claims.UserID); err != nil {
			log.Error("Failed to delete statement", zap.String("kind", kind.Name), zap.Uint("id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete " + kind.Name})
		}

		return c.NoContent(http.StatusNoContent)
	}
}
