package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
	"yalla-business/pkg/middleware"
)

func runCompanyRouter(secureGroup *echo.Group, companyCtrl *controllers.CompanyController) {
	secureGroup.GET("/companies/current", companyCtrl.GetCurrent)

	companies := secureGroup.Group("/companies", middleware.RequireRoles(superAdminOnly...))
	{
		companies.GET("", companyCtrl.GetAll)
		companies.POST("", companyCtrl.Create)
		companies.GET("/:id", companyCtrl.GetByID)
		companies.PUT("/:id", companyCtrl.Update)
		companies.PATCH("/:id/status", companyCtrl.UpdateStatus)
		companies.DELETE("/:id", companyCtrl.Delete)
	}
}

func runProjectRouter(secureGroup *echo.Group, projectCtrl *controllers.ProjectController) {
	projects := secureGroup.Group("/projects")
	{
		projects.GET("", projectCtrl.GetAll)
		projects.GET("/:id", projectCtrl.GetByID)
		projects.POST("", projectCtrl.Create, middleware.RequireRoles(adminRoles...))
		projects.PUT("/:id", projectCtrl.Update, middleware.RequireRoles(adminRoles...))
		projects.DELETE("/:id", projectCtrl.Delete, middleware.RequireRoles(adminRoles...))
	}
}
