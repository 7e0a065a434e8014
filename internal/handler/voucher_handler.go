package handler

import (
	"net/http"

	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/jwtutil"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// VoucherHandler serves a user's unused vouchers
type VoucherHandler struct {
	store *store.Store
}

// NewVoucherHandler creates a voucher handler around the injected store
func NewVoucherHandler(st *store.Store) *VoucherHandler {
	return &VoucherHandler{store: st}
}

// List handles GET /user/vouchers
func (h *VoucherHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	vouchers, err := h.store.ActiveVouchers(c.Request().Context(), claims.UserID)
	if err != nil {
		log.Error("Failed to retrieve user vouchers",
			zap.Uint("user_id", claims.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve vouchers"})
	}

	return c.JSON(http.StatusOK, echo.Map{"vouchers": vouchers})
}
