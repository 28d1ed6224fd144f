package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fieldtrack/internal/live"
	"fieldtrack/internal/middleware"
	"fieldtrack/internal/models"
	"fieldtrack/internal/position"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// LiveController serves the live channel: tracked users push location
// envelopes, watchers receive broadcasts.
type LiveController struct {
	hub *live.Hub
}

func NewLiveController(hub *live.Hub) *LiveController {
	return &LiveController{hub: hub}
}

// authenticateForWebSocket extracts and validates the JWT token from
// the query string. Browsers cannot set headers on websocket dials.
func authenticateForWebSocket(c *gin.Context) (*middleware.Claims, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return nil, errors.New("missing authentication token")
	}
	return middleware.ValidateToken(tokenString)
}

// HandleLiveWebSocket upgrades the connection and routes it by role:
// drivers and sales reps stream location updates in, everyone else
// watches broadcasts.
// GET /ws/live?token=...
func (lc *LiveController) HandleLiveWebSocket(c *gin.Context) {
	claims, err := authenticateForWebSocket(c)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket connection attempt rejected.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	switch claims.Role {
	case models.RoleDriver, models.RoleSalesRep:
		lc.handleFieldUser(conn, claims.UserID, claims.Role)
	default:
		lc.handleWatcher(conn, claims.UserID)
	}
}

// handleWatcher registers a monitoring connection with the hub and
// holds it open until the peer disconnects.
func (lc *LiveController) handleWatcher(conn *websocket.Conn, watcherID uint) {
	lc.hub.Register(watcherID, conn)
	defer lc.hub.Unregister(watcherID, conn)

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("watcher_id", watcherID).Info("Watcher WebSocket closed.")
			} else {
				logrus.WithError(err).WithField("watcher_id", watcherID).Error("Error reading watcher WebSocket message.")
			}
			return
		}
	}
}

// inboundLocation is a field user's pushed location envelope payload.
type inboundLocation struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Accuracy     float64 `json:"accuracy"`
	Altitude     float64 `json:"altitude"`
	Heading      float64 `json:"heading"`
	Speed        float64 `json:"speed"`
	BatteryLevel float64 `json:"battery_level"`
}

// handleFieldUser reads location envelopes from a tracked user and
// broadcasts them through the hub. Pushed locations complement the
// device position source; they do not replace a tracking session.
func (lc *LiveController) handleFieldUser(conn *websocket.Conn, userID uint, role string) {
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    role,
	}).Info("Field user WebSocket connection established.")

	for {
		var env struct {
			Type string          `json:"type"`
			Data inboundLocation `json:"data"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("user_id", userID).Info("Field user WebSocket closed.")
			} else {
				logrus.WithError(err).WithField("user_id", userID).Error("Error reading field user WebSocket message.")
			}
			return
		}

		switch env.Type {
		case live.TypeRegister:
			conn.WriteJSON(gin.H{"status": "registered", "user_id": userID})
		case live.TypeLocationUpdate:
			sample := models.LocationSample{
				UserID:       userID,
				Role:         role,
				Latitude:     env.Data.Latitude,
				Longitude:    env.Data.Longitude,
				Accuracy:     env.Data.Accuracy,
				Altitude:     env.Data.Altitude,
				Heading:      env.Data.Heading,
				Speed:        env.Data.Speed,
				Activity:     position.ClassifyActivity(env.Data.Speed),
				BatteryLevel: env.Data.BatteryLevel,
				Timestamp:    time.Now(),
			}
			lc.hub.PublishLocation(userID, sample)
		default:
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"type":    env.Type,
			}).Warn("Unexpected live envelope type from field user. Ignoring.")
		}
	}
}
