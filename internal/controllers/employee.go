package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type EmployeeController struct {
	employeeService services.EmployeeServiceInterface
	logger          *zap.Logger
}

func NewEmployeeController(employeeService services.EmployeeServiceInterface, logger *zap.Logger) *EmployeeController {
	return &EmployeeController{employeeService: employeeService, logger: logger}
}

// GetAll: ?search=&filter[project_id]=&filter[service_type]=&filter[is_active]=&page=&limit=
func (ctrl *EmployeeController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.employeeService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Список сотрудников", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *EmployeeController) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.employeeService.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Сотрудник", res)
}

func (ctrl *EmployeeController) Create(c echo.Context) error {
	var payload dto.CreateEmployeeDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.employeeService.Create(c.Request().Context(), payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Сотрудник добавлен", res)
}

func (ctrl *EmployeeController) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.UpdateEmployeeDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.employeeService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Сотрудник обновлён", res)
}

func (ctrl *EmployeeController) Deactivate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.employeeService.Deactivate(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Сотрудник деактивирован", res)
}

func (ctrl *EmployeeController) Activate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.employeeService.Activate(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Сотрудник активирован", res)
}

func (ctrl *EmployeeController) GetOrders(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	filter := filterFromQuery(c)
	res, err := ctrl.employeeService.GetEmployeeOrders(c.Request().Context(), id, filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Заказы сотрудника", res.List, res.Total, filter.Page, filter.Limit)
}
