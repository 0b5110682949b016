package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CoursePricingHandler struct {
	uc *usecase.CoursePricingUsecase
}

func NewCoursePricingHandler(uc *usecase.CoursePricingUsecase) *CoursePricingHandler {
	return &CoursePricingHandler{uc: uc}
}

// course_id may come as a query parameter or as the last path segment.
func (h *CoursePricingHandler) RegisterRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/course-pricing/", h.get, auth)
	g.GET("/course-pricing/:course_id/", h.get, auth)
}

func (h *CoursePricingHandler) get(c echo.Context) error {
	// an unencoded "+" in the query decodes to a space; keys never contain one
	courseID := strings.ReplaceAll(strings.TrimSpace(c.QueryParam("course_id")), " ", "+")
	if p := c.Param("course_id"); p != "" {
		// PathUnescape keeps a literal "+"
		if v, err := url.PathUnescape(p); err == nil {
			p = v
		}
		courseID = p
	}

	out, err := h.uc.Get(c.Request().Context(), usecase.CoursePricingInput{
		CourseID: courseID,
		Mode:     c.QueryParam("mode"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
