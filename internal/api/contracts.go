package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

type contractRoutes struct {
	svc *revisions.Service
}

func registerContracts(g *echo.Group, svc *revisions.Service) {
	r := contractRoutes{svc: svc}
	g.POST("", r.insert)
	g.GET("", r.list)
	g.GET("/:id", r.find)
	g.PUT("/:id/draft", r.update)
	g.POST("/:id/unlock", r.unlock)
}

type insertContractRequest struct {
	StateCode string                  `json:"state_code" validate:"required"`
	FormData  domain.ContractFormData `json:"form_data"`
	RateIDs   []string                `json:"rate_ids"`
}

type updateContractRequest struct {
	FormData domain.ContractFormData `json:"form_data"`
	RateIDs  []string                `json:"rate_ids"`
}

type unlockRequest struct {
	UnlockedBy string `json:"unlocked_by" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

func (r contractRoutes) insert(c echo.Context) error {
	var req insertContractRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rev, err := r.svc.InsertDraftContract(c.Request().Context(), revisions.InsertContractArgs{
		StateCode: req.StateCode,
		FormData:  req.FormData,
		RateIDs:   req.RateIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rev)
}

func (r contractRoutes) list(c echo.Context) error {
	out, err := r.svc.ListContracts(c.Request().Context(), c.QueryParam("state"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (r contractRoutes) find(c echo.Context) error {
	out, err := r.svc.FindContractWithHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (r contractRoutes) update(c echo.Context) error {
	var req updateContractRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rev, err := r.svc.UpdateDraftContract(c.Request().Context(), revisions.UpdateContractArgs{
		ContractID: c.Param("id"),
		FormData:   req.FormData,
		RateIDs:    req.RateIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rev)
}

func (r contractRoutes) unlock(c echo.Context) error {
	var req unlockRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rev, err := r.svc.UnlockContract(c.Request().Context(), revisions.UnlockArgs{
		ID:         c.Param("id"),
		UnlockedBy: req.UnlockedBy,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rev)
}
