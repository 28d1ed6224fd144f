package routes

import (
	"github.com/gin-gonic/gin"

	"fieldtrack/internal/controllers"
	"fieldtrack/internal/middleware"
	"fieldtrack/internal/models"
)

// Zone administration is dispatcher-only; reads are open to any
// authenticated user.
func ZoneRoutes(r *gin.Engine, zc *controllers.ZoneController) {
	zones := r.Group("/zones")
	zones.Use(middleware.RequireAuth())
	{
		zones.GET("", zc.ListZones)
		zones.GET("/:id", zc.GetZone)
	}
	zoneAdmin := r.Group("/zones")
	zoneAdmin.Use(middleware.RequireAuthWithRole(models.RoleDispatcher))
	{
		zoneAdmin.POST("", zc.CreateZone)
		zoneAdmin.PUT("/:id", zc.UpdateZone)
		zoneAdmin.DELETE("/:id", zc.DeleteZone)
	}

	alerts := r.Group("/alerts")
	alerts.Use(middleware.RequireAuth())
	{
		alerts.GET("", zc.GetActiveAlerts)
	}
	alertAdmin := r.Group("/alerts")
	alertAdmin.Use(middleware.RequireAuthWithRole(models.RoleDispatcher))
	{
		alertAdmin.POST("/:id/ack", zc.AcknowledgeAlert)
	}

	violations := r.Group("/violations")
	violations.Use(middleware.RequireAuth())
	{
		violations.GET("", zc.GetComplianceViolations)
	}
}
