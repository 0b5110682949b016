package handler

import (
	"log/slog"
	"net/http"

	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ErrorResponse always has "error"; invalid statuses add "allowed" and
// errors about an existing order echo it back in "order".
type ErrorResponse struct {
	Error   string               `json:"error"`
	Allowed []string             `json:"allowed,omitempty"`
	Order   *usecase.OrderOutput `json:"order,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "err", he.Kind)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Allowed: he.Allowed, Order: he.Order})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error",
		"method", c.Request().Method, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
