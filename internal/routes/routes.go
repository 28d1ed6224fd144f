package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"fieldtrack/internal/controllers"
)

// Deps carries the wired controllers into the router. Auth is nil
// unless dev token minting is enabled.
type Deps struct {
	Tracking *controllers.TrackingController
	Zones    *controllers.ZoneController
	Delivery *controllers.DeliveryController
	Live     *controllers.LiveController
	Auth     *controllers.AuthController
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	TrackingRoutes(r, deps.Tracking)
	ZoneRoutes(r, deps.Zones)
	DeliveryRoutes(r, deps.Delivery)
	WebSocketRoutes(r, deps.Live)
	if deps.Auth != nil {
		AuthRoutes(r, deps.Auth)
	}

	return r
}
