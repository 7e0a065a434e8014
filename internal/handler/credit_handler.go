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

// CreditHandler serves a user's unexpired balances grouped by merchant
type CreditHandler struct {
	store *store.Store
}

// NewCreditHandler creates a credit handler around the injected store
func NewCreditHandler(st *store.Store) *CreditHandler {
	return &CreditHandler{store: st}
}

// List handles GET /user/credits
func (h *CreditHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	credits, err := h.store.CreditsByMerchant(c.Request().Context(), claims.UserID, time.Now())
	if err != nil {
		log.Error("Failed to retrieve user credits",
			zap.Uint("user_id", claims.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve credits"})
	}

	return c.JSON(http.StatusOK, echo.Map{"credits": credits})
}
