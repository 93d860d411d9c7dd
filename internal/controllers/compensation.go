package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type CompensationController struct {
	compensationService services.CompensationServiceInterface
	logger              *zap.Logger
}

func NewCompensationController(compensationService services.CompensationServiceInterface, logger *zap.Logger) *CompensationController {
	return &CompensationController{compensationService: compensationService, logger: logger}
}

func (ctrl *CompensationController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.compensationService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Операции компенсации", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *CompensationController) Create(c echo.Context) error {
	var payload dto.CreateCompensationDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.compensationService.Create(c.Request().Context(), payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Компенсация проведена", res)
}

// EmployeeSummary: /compensations/employees/:id/summary?month=YYYY-MM
func (ctrl *CompensationController) EmployeeSummary(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.compensationService.GetEmployeeSummary(c.Request().Context(), id, c.QueryParam("month"))
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Лимит компенсации", res)
}
