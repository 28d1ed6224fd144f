package routes

import (
	"github.com/gin-gonic/gin"

	"fieldtrack/internal/controllers"
)

func AuthRoutes(r *gin.Engine, ac *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/token", ac.IssueToken)
	}
}
