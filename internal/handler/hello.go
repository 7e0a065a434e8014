package handler

import (
	"net/http"

	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/labstack/echo/v4"
)

func Hello(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Hello from fidelisation")
	return c.JSON(http.StatusOK, echo.Map{"message": "hello from fidelisation"})
}
