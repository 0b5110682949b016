package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const appName = "cusc_edx_api"

type PingHandler struct{}

func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

func (h *PingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ping/", h.ping)
}

func (h *PingHandler) ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "app": appName})
}
