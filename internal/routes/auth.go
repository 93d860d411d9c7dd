package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
	"yalla-business/pkg/middleware"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware, loginLimiter *middleware.RateLimiter) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login, loginLimiter.Middleware())
		authGroup.POST("/refresh", authCtrl.Refresh, loginLimiter.Middleware())
		authGroup.POST("/logout", authCtrl.Logout)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
		authGroup.POST("/change-password", authCtrl.ChangePassword, authMW.Auth)
	}
}
