package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type CompanyController struct {
	companyService services.CompanyServiceInterface
	logger         *zap.Logger
}

func NewCompanyController(companyService services.CompanyServiceInterface, logger *zap.Logger) *CompanyController {
	return &CompanyController{companyService: companyService, logger: logger}
}

func (ctrl *CompanyController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.companyService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Список компаний", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *CompanyController) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.companyService.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Компания", res)
}

func (ctrl *CompanyController) GetCurrent(c echo.Context) error {
	res, err := ctrl.companyService.GetCurrent(c.Request().Context())
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Текущая компания", res)
}

func (ctrl *CompanyController) Create(c echo.Context) error {
	var payload dto.CreateCompanyDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.companyService.Create(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Error("Ошибка создания компании", zap.String("name", payload.Name), zap.Error(err))
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Компания создана", res)
}

func (ctrl *CompanyController) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.UpdateCompanyDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.companyService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Компания обновлена", res)
}

func (ctrl *CompanyController) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.UpdateCompanyStatusDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.companyService.UpdateStatus(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Статус компании изменён", res)
}

func (ctrl *CompanyController) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	if err := ctrl.companyService.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Компания удалена", dto.IDResponseDTO{ID: id})
}
