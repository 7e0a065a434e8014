package handler

import (
	"net/http"

	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatsHandler serves the admin dashboard aggregates
type StatsHandler struct {
	store *store.Store
}

// NewStatsHandler creates a stats handler around the injected store
func NewStatsHandler(st *store.Store) *StatsHandler {
	return &StatsHandler{store: st}
}

// Get handles GET /admin/stats. Role enforcement happens in the admin
// middleware group.
func (h *StatsHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	stats, err := h.store.GlobalStats(c.Request().Context())
	if err != nil {
		log.Error("Failed to compute admin stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}

	return c.JSON(http.StatusOK, stats)
}
