package handler

import (
	"net/http"

	"insight-service/internal/middleware"
	"insight-service/internal/store"
	"insight-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler exposes the caller's profile, kept in sync with the identity
// provider's claims on every fetch.
type AuthHandler struct {
	users *store.UserStore
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(users *store.UserStore) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register wires the auth routes onto the authenticated API group
func (h *AuthHandler) Register(api *echo.Group) {
	api.GET("/auth/user", h.CurrentUser)
}

// CurrentUser upserts the user row from the JWT claims and returns it
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	user, err := h.users.UpsertFromClaims(c.Request().Context(), claims)
	if err != nil {
		log.Error("Failed to sync user from claims", zap.String("user_id", claims.UserID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}

	return c.JSON(http.StatusOK, user)
}
