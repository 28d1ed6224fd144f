package routes

import (
	"github.com/gin-gonic/gin"

	"fieldtrack/internal/controllers"
	"fieldtrack/internal/middleware"
)

func DeliveryRoutes(r *gin.Engine, dc *controllers.DeliveryController) {
	deliveryRoutes := r.Group("/routes")
	deliveryRoutes.Use(middleware.RequireAuth())
	{
		deliveryRoutes.POST("", dc.CreateRoute)
		deliveryRoutes.GET("/:id", dc.GetRoute)
		deliveryRoutes.GET("/:id/stops", dc.GetStops)
		deliveryRoutes.POST("/:id/start", dc.StartRoute)
		deliveryRoutes.POST("/:id/optimize", dc.OptimizeRoute)
		deliveryRoutes.POST("/:id/complete", dc.CompleteRoute)
		deliveryRoutes.POST("/:id/cancel", dc.CancelRoute)
	}

	stops := r.Group("/stops")
	stops.Use(middleware.RequireAuth())
	{
		stops.POST("/:id/complete", dc.CompleteStop)
		stops.POST("/:id/fail", dc.FailStop)
		stops.POST("/:id/skip", dc.SkipStop)
	}

	drivers := r.Group("/drivers")
	drivers.Use(middleware.RequireAuth())
	{
		drivers.GET("/:driver_id/routes", dc.ActiveRoutes)
	}
}
