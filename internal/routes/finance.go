package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
	"yalla-business/pkg/middleware"
)

func runCompensationRouter(secureGroup *echo.Group, compCtrl *controllers.CompensationController, dedup *controllers.RequestDeduplicator) {
	comps := secureGroup.Group("/compensations")
	{
		comps.GET("", compCtrl.GetAll)
		comps.POST("", compCtrl.Create, dedup.Guard(duplicateWindow))
		comps.GET("/employees/:id/summary", compCtrl.EmployeeSummary)
	}
}

func runTransactionRouter(secureGroup *echo.Group, txCtrl *controllers.TransactionController) {
	txs := secureGroup.Group("/transactions")
	{
		txs.GET("", txCtrl.GetAll)
		txs.GET("/balance", txCtrl.GetBalance)
		txs.POST("/top-up", txCtrl.TopUp, middleware.RequireRoles(superAdminOnly...))
	}
}

func runInvoiceRouter(secureGroup *echo.Group, invoiceCtrl *controllers.InvoiceController) {
	invoices := secureGroup.Group("/invoices", middleware.RequireRoles(adminRoles...))
	{
		invoices.GET("", invoiceCtrl.GetAll)
		invoices.POST("", invoiceCtrl.Create)
		invoices.POST("/statements", invoiceCtrl.GenerateStatement)
		invoices.GET("/:id", invoiceCtrl.GetByID)
		invoices.POST("/:id/pay", invoiceCtrl.MarkPaid, middleware.RequireRoles(superAdminOnly...))
		invoices.POST("/:id/cancel", invoiceCtrl.Cancel)
	}
}
