package handler

import (
	"io"
	"net/http"
	"strings"

	"insight-service/internal/billing"
	"insight-service/internal/middleware"
	"insight-service/internal/store"
	"insight-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BillingHandler serves subscription checkout, billing portal, and the
// provider's webhook.
type BillingHandler struct {
	client *billing.Client
	users  *store.UserStore
}

// NewBillingHandler creates a billing handler
func NewBillingHandler(client *billing.Client, users *store.UserStore) *BillingHandler {
	return &BillingHandler{client: client, users: users}
}

// Register wires checkout/portal onto the authenticated group. The webhook is
// registered separately since the provider calls it unauthenticated.
func (h *BillingHandler) Register(api *echo.Group) {
	api.POST("/billing/checkout", h.Checkout)
	api.POST("/billing/portal", h.Portal)
}

// RegisterWebhook wires the unauthenticated webhook route
func (h *BillingHandler) RegisterWebhook(e *echo.Echo) {
	e.POST("/api/billing/webhook", h.Webhook)
}

// Checkout creates (or reuses) the caller's billing customer and returns a
// checkout-session URL.
func (h *BillingHandler) Checkout(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx := c.Request().Context()
	user, err := h.users.UpsertFromClaims(ctx, claims)
	if err != nil {
		log.Error("Failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	} else {
		name := strings.TrimSpace(user.FirstName + " " + user.LastName)
		customerID, err = h.client.CreateCustomer(ctx, user.Email, name)
		if err != nil {
			log.Error("Failed to create billing customer", zap.String("user_id", user.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start checkout"})
		}
		if err := h.users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			log.Error("Failed to store billing customer id", zap.String("user_id", user.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start checkout"})
		}
	}

	sessionURL, err := h.client.CreateCheckoutSession(ctx, customerID)
	if err != nil {
		log.Error("Failed to create checkout session", zap.String("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start checkout"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": sessionURL})
}

// Portal returns a billing-portal-session URL for the caller
func (h *BillingHandler) Portal(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.CallerClaims(c)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx := c.Request().Context()
	user, err := h.users.Get(ctx, claims.UserID)
	if err != nil || user.StripeCustomerID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no billing account for user"})
	}

	var req struct {
		ReturnURL string `json:"returnUrl"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ReturnURL == "" {
		req.ReturnURL = "/"
	}

	portalURL, err := h.client.CreatePortalSession(ctx, *user.StripeCustomerID, req.ReturnURL)
	if err != nil {
		log.Error("Failed to create portal session", zap.String("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open billing portal"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": portalURL})
}

// Webhook receives subscription-state changes from the billing provider
func (h *BillingHandler) Webhook(c echo.Context) error {
	log := logger.FromEcho(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read payload"})
	}

	event, err := h.client.VerifyWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn("Webhook signature verification failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ctx := c.Request().Context()
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		user, err := h.users.GetByStripeCustomerID(ctx, event.Data.Object.Customer)
		if err != nil {
			log.Warn("Webhook for unknown customer", zap.String("customer_id", event.Data.Object.Customer))
			break
		}
		subID := event.Data.Object.ID
		if err := h.users.SetStripeSubscriptionID(ctx, user.ID, &subID); err != nil {
			log.Error("Failed to store subscription id", zap.String("user_id", user.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process event"})
		}
	case "customer.subscription.deleted":
		user, err := h.users.GetByStripeCustomerID(ctx, event.Data.Object.Customer)
		if err != nil {
			log.Warn("Webhook for unknown customer", zap.String("customer_id", event.Data.Object.Customer))
			break
		}
		if err := h.users.SetStripeSubscriptionID(ctx, user.ID, nil); err != nil {
			log.Error("Failed to clear subscription id", zap.String("user_id", user.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process event"})
		}
	default:
		log.Debug("Ignoring webhook event", zap.String("type", event.Type))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
