package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type DashboardController struct {
	dashboardService services.DashboardServiceInterface
	logger           *zap.Logger
}

func NewDashboardController(ds services.DashboardServiceInterface, logger *zap.Logger) *DashboardController {
	return &DashboardController{
		dashboardService: ds,
		logger:           logger,
	}
}

// GetStats: ?company_id= (только супер-админ), ?project_id=
func (ctrl *DashboardController) GetStats(c echo.Context) error {
	companyID, err := parseQueryID(c, "company_id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	projectID, err := parseQueryID(c, "project_id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}

	stats, err := ctrl.dashboardService.GetStats(c.Request().Context(), companyID, projectID)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Статистика для дашборда получена", stats)
}
