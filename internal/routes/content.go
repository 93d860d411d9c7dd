package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
	"yalla-business/pkg/middleware"
)

func runDocumentRouter(secureGroup *echo.Group, docCtrl *controllers.DocumentController) {
	docs := secureGroup.Group("/documents")
	{
		docs.GET("", docCtrl.GetAll)
		docs.GET("/:id/download", docCtrl.Download)
		docs.POST("", docCtrl.Upload, middleware.RequireRoles(adminRoles...))
		docs.DELETE("/:id", docCtrl.Delete, middleware.RequireRoles(adminRoles...))
	}
}

func runNewsRouter(secureGroup *echo.Group, newsCtrl *controllers.NewsController) {
	superAdmin := middleware.RequireRoles(superAdminOnly...)
	news := secureGroup.Group("/news")
	{
		news.GET("", newsCtrl.GetAll)
		news.GET("/unread-count", newsCtrl.UnreadCount)
		news.GET("/:id", newsCtrl.GetByID)
		news.GET("/:id/image", newsCtrl.Image)
		news.POST("/:id/read", newsCtrl.MarkRead)
		news.POST("", newsCtrl.Create, superAdmin)
		news.PUT("/:id", newsCtrl.Update, superAdmin)
		news.DELETE("/:id", newsCtrl.Delete, superAdmin)
		news.POST("/:id/image", newsCtrl.UploadImage, superAdmin)
	}
}

func runBusinessConfigRouter(secureGroup *echo.Group, configCtrl *controllers.BusinessConfigController) {
	superAdmin := middleware.RequireRoles(superAdminOnly...)
	cfg := secureGroup.Group("/config")
	{
		cfg.GET("", configCtrl.GetAll)
		cfg.POST("/clear-cache", configCtrl.ClearCache, superAdmin)
		cfg.GET("/:key", configCtrl.Get)
		cfg.PUT("/:key", configCtrl.Update, superAdmin)
	}
}

func runReportRouter(secureGroup *echo.Group, dashboardCtrl *controllers.DashboardController, exportCtrl *controllers.ExportController) {
	secureGroup.GET("/dashboard/stats", dashboardCtrl.GetStats)

	export := secureGroup.Group("/export")
	{
		export.GET("/employees", exportCtrl.Employees)
		export.GET("/orders", exportCtrl.Orders)
		export.GET("/transactions", exportCtrl.Transactions)
	}
}
