package routes

import (
	"github.com/gin-gonic/gin"

	"fieldtrack/internal/controllers"
	"fieldtrack/internal/middleware"
)

func TrackingRoutes(r *gin.Engine, tc *controllers.TrackingController) {
	tracking := r.Group("/tracking")
	tracking.Use(middleware.RequireAuth())
	{
		tracking.POST("/:user_id/start", tc.StartTracking)
		tracking.POST("/:user_id/stop", tc.StopTracking)
		tracking.GET("/:user_id/location", tc.GetCurrentLocation)
		tracking.GET("/:user_id/history", tc.GetLocationHistory)
	}
}
