package routes

import (
	"github.com/labstack/echo/v4"

	"yalla-business/internal/controllers"
)

func runEmployeeRouter(secureGroup *echo.Group, employeeCtrl *controllers.EmployeeController) {
	employees := secureGroup.Group("/employees")
	{
		employees.GET("", employeeCtrl.GetAll)
		employees.POST("", employeeCtrl.Create)
		employees.GET("/:id", employeeCtrl.GetByID)
		employees.PUT("/:id", employeeCtrl.Update)
		employees.POST("/:id/deactivate", employeeCtrl.Deactivate)
		employees.POST("/:id/activate", employeeCtrl.Activate)
		employees.GET("/:id/orders", employeeCtrl.GetOrders)
	}
}
