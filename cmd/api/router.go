package api

import (
	"net/http"

	"hndld-backend/internal/auth/delivery"
	authUsecase "hndld-backend/internal/auth/usecase"
	hdomain "hndld-backend/internal/household/domain"
	householdDelivery "hndld-backend/internal/household/delivery"
	taskDelivery "hndld-backend/internal/task/delivery"
	"hndld-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, taskHandler *taskDelivery.TaskHandler, householdHandler *householdDelivery.HouseholdHandler, deviceHandler *delivery.DeviceHandler, m *metrics.Metrics) {
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(delivery.AuthMiddleware(authUsecase))
		taskHandler.RegisterRoutes(tasks)

		// Important dates (protected)
		dates := api.Group("/important-dates")
		dates.Use(delivery.AuthMiddleware(authUsecase))
		{
			dates.GET("", householdHandler.GetImportantDates)
			dates.POST("", delivery.RequireRole(string(hdomain.RoleAssistant), string(hdomain.RoleClient)), householdHandler.CreateImportantDate)
			dates.DELETE("/:id", delivery.RequireRole(string(hdomain.RoleAssistant), string(hdomain.RoleClient)), householdHandler.DeleteImportantDate)
		}

		// On-demand moments run (assistants only)
		moments := api.Group("/moments")
		moments.Use(delivery.AuthMiddleware(authUsecase), delivery.RequireRole(string(hdomain.RoleAssistant)))
		{
			moments.POST("/run", householdHandler.RunMoments)
		}

		// Device routes (protected)
		if deviceHandler != nil {
			devices := api.Group("/devices")
			devices.Use(delivery.AuthMiddleware(authUsecase))
			{
				devices.POST("", deviceHandler.RegisterDevice)
				devices.DELETE("/:token", deviceHandler.UnregisterDevice)
			}
		}
	}
}
