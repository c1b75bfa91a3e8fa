package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

type rateRoutes struct {
	svc *revisions.Service
}

func registerRates(g *echo.Group, svc *revisions.Service) {
	r := rateRoutes{svc: svc}
	g.POST("", r.insert)
	g.GET("", r.list)
	g.GET("/:id", r.find)
	g.PUT("/:id/draft", r.update)
	g.POST("/:id/unlock", r.unlock)
}

type insertRateRequest struct {
	StateCode   string              `json:"state_code" validate:"required"`
	FormData    domain.RateFormData `json:"form_data"`
	ContractIDs []string            `json:"contract_ids"`
}

type updateRateRequest struct {
	FormData    domain.RateFormData `json:"form_data"`
	ContractIDs []string            `json:"contract_ids"`
}

func (r rateRoutes) insert(c echo.Context) error {
	var req insertRateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rev, err := r.svc.InsertDraftRate(c.Request().Context(), revisions.InsertRateArgs{
		StateCode:   req.StateCode,
		FormData:    req.FormData,
		ContractIDs: req.ContractIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rev)
}

func (r rateRoutes) list(c echo.Context) error {
	out, err := r.svc.ListRates(c.Request().Context(), c.QueryParam("state"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (r rateRoutes) find(c echo.Context) error {
	out, err := r.svc.FindRateWithHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (r rateRoutes) update(c echo.Context) error {
	var req updateRateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rev, err := r.svc.UpdateDraftRate(c.Request().Context(), revisions.UpdateRateArgs{
		RateID:      c.Param("id"),
		FormData:    req.FormData,
		ContractIDs: req.ContractIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rev)
}

func (r rateRoutes) unlock(c echo.Context) error {
	var req unlockRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rev, err := r.svc.UnlockRate(c.Request().Context(), revisions.UnlockArgs{
		ID:         c.Param("id"),
		UnlockedBy: req.UnlockedBy,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rev)
}
