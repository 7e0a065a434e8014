package handler

import (
	"net/http"
	"time"

	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/jwtutil"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PartnerHandler serves the partner directory enriched with the caller's
// balances.
type PartnerHandler struct {
	store *store.Store
}

// NewPartnerHandler creates a partner handler around the injected store
func NewPartnerHandler(st *store.Store) *PartnerHandler {
	return &PartnerHandler{store: st}
}

// List handles GET /partners
func (h *PartnerHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	partners, err := h.store.Partners(c.Request().Context(), claims.UserID, time.Now())
	if err != nil {
		log.Error("Failed to retrieve partners",
			zap.Uint("user_id", claims.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve partners"})
	}

	return c.JSON(http.StatusOK, echo.Map{"partners": partners})
}
