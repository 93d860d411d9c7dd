package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type TransactionController struct {
	transactionService services.TransactionServiceInterface
	logger             *zap.Logger
}

func NewTransactionController(transactionService services.TransactionServiceInterface, logger *zap.Logger) *TransactionController {
	return &TransactionController{transactionService: transactionService, logger: logger}
}

func (ctrl *TransactionController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.transactionService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "История операций", res.List, res.Total, filter.Page, filter.Limit)
}

// GetBalance: company_id учитывается только для супер-админа.
func (ctrl *TransactionController) GetBalance(c echo.Context) error {
	companyID, err := parseQueryID(c, "company_id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.transactionService.GetBalance(c.Request().Context(), companyID)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Баланс", res)
}

func (ctrl *TransactionController) TopUp(c echo.Context) error {
	var payload dto.TopUpDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.transactionService.TopUp(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Error("Ошибка пополнения баланса", zap.Uint64("company_id", payload.CompanyID), zap.Error(err))
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Баланс пополнен", res)
}
