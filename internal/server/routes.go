package server

import (
	"github.com/NekoNeko6996/cusc-edx-api/internal/config"
	"github.com/NekoNeko6996/cusc-edx-api/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	g := e.Group(cfg.APIPrefix)
	auth := middleware.SharedSecret(cfg)

	h.Ping.RegisterRoutes(g)
	h.Orders.RegisterRoutes(g, auth)
	h.Users.RegisterRoutes(g, auth)
	h.Pricing.RegisterRoutes(g, auth)
}
