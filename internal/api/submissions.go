package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

func registerSubmissions(g *echo.Group, svc *revisions.Service) {
	g.POST("", func(c echo.Context) error {
		var req revisions.SubmitArgs
		if err := bind(c, &req); err != nil {
			return err
		}
		sub, err := svc.Submit(c.Request().Context(), req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, sub)
	})
}
