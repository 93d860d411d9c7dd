package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
)

func runSubscriptionRouter(secureGroup *echo.Group, subCtrl *controllers.SubscriptionController, dedup *controllers.RequestDeduplicator) {
	subs := secureGroup.Group("/subscriptions")
	{
		subs.GET("", subCtrl.GetAll)
		subs.POST("", subCtrl.Create, dedup.Guard(duplicateWindow))
		subs.GET("/:id", subCtrl.GetByID)
		subs.POST("/:id/pause", subCtrl.Pause)
		subs.POST("/:id/resume", subCtrl.Resume)
		subs.POST("/:id/cancel", subCtrl.Cancel)
		subs.PATCH("/:id/combo", subCtrl.UpdateCombo)
	}
}
