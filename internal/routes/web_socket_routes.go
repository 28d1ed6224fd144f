package routes

import (
	"github.com/gin-gonic/gin"

	"fieldtrack/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, lc *controllers.LiveController) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/live", lc.HandleLiveWebSocket)
	}
}
