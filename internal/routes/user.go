package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
	"yalla-business/pkg/middleware"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController) {
	users := secureGroup.Group("/users", middleware.RequireRoles(adminRoles...))
	{
		users.GET("", userCtrl.GetUsers)
		users.POST("", userCtrl.CreateUser)
		users.GET("/:id", userCtrl.FindUser)
		users.PUT("/:id", userCtrl.UpdateUser)
		users.DELETE("/:id", userCtrl.DeleteUser)
		users.POST("/:id/reset-password", userCtrl.ResetPassword)
	}
}
