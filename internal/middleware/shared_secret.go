package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/NekoNeko6996/cusc-edx-api/internal/config"
	"github.com/NekoNeko6996/cusc-edx-api/internal/handler"

	"github.com/labstack/echo/v4"
)

// SharedSecret checks the payment token header sent by the shop backend.
// With no token configured every request passes (dev).
func SharedSecret(cfg config.Config) echo.MiddlewareFunc {
	want := []byte(cfg.PaymentAPIToken)
	header := cfg.PaymentTokenHeader

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(want) == 0 {
				return next(c)
			}

			got := []byte(c.Request().Header.Get(header))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				return c.JSON(http.StatusUnauthorized, handler.ErrorResponse{Error: "Unauthorized"})
			}
			return next(c)
		}
	}
}
