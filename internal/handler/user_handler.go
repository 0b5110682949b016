package handler

import (
	"net/http"

	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/users/lookup/", h.lookup, auth)
}

func (h *UserHandler) lookup(c echo.Context) error {
	out, err := h.uc.Lookup(c.Request().Context(), usecase.UserLookupInput{
		Username: c.QueryParam("username"),
		Email:    c.QueryParam("email"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
