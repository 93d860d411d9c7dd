package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
)

func runOrderRouter(secureGroup *echo.Group, orderCtrl *controllers.OrderController, dedup *controllers.RequestDeduplicator) {
	orders := secureGroup.Group("/orders")
	{
		orders.GET("", orderCtrl.GetOrders)
		orders.GET("/today", orderCtrl.GetToday)
		orders.GET("/freeze-info", orderCtrl.GetFreezeInfo)
		orders.POST("/guest", orderCtrl.CreateGuestOrder, dedup.Guard(duplicateWindow))
		orders.GET("/:id", orderCtrl.FindOrder)
		orders.POST("/:id/freeze", orderCtrl.Freeze)
		orders.POST("/:id/unfreeze", orderCtrl.Unfreeze)
		orders.POST("/:id/cancel", orderCtrl.Cancel)
	}
}
