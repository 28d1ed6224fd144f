package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fieldtrack/internal/models"
	"fieldtrack/internal/tracking"
)

// TrackingController exposes the tracking session lifecycle and
// location queries.
type TrackingController struct {
	svc *tracking.Service
}

func NewTrackingController(svc *tracking.Service) *TrackingController {
	return &TrackingController{svc: svc}
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	s := c.Query(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

type startTrackingInput struct {
	Role       string `json:"role"`
	LiveStream bool   `json:"live_stream"`
}

// StartTracking begins a tracking session for a user.
// POST /tracking/:user_id/start
func (tc *TrackingController) StartTracking(c *gin.Context) {
	userID, ok := paramUint(c, "user_id")
	if !ok {
		return
	}

	var input startTrackingInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if input.Role == "" {
		input.Role = models.RoleDriver
	}

	if err := tc.svc.StartTracking(userID, input.Role, tracking.Options{LiveStream: input.LiveStream}); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "tracking", "user_id": userID})
}

// StopTracking ends a user's tracking session.
// POST /tracking/:user_id/stop
func (tc *TrackingController) StopTracking(c *gin.Context) {
	userID, ok := paramUint(c, "user_id")
	if !ok {
		return
	}
	if err := tc.svc.StopTracking(userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped", "user_id": userID})
}

// GetCurrentLocation returns the freshest location for a user.
// GET /tracking/:user_id/location
func (tc *TrackingController) GetCurrentLocation(c *gin.Context) {
	userID, ok := paramUint(c, "user_id")
	if !ok {
		return
	}
	sample, err := tc.svc.GetCurrentLocation(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch location"})
		return
	}
	if sample == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location for user"})
		return
	}
	c.JSON(http.StatusOK, sample)
}

// GetLocationHistory returns a user's samples within a time range,
// ascending.
// GET /tracking/:user_id/history?start=RFC3339&end=RFC3339
func (tc *TrackingController) GetLocationHistory(c *gin.Context) {
	userID, ok := paramUint(c, "user_id")
	if !ok {
		return
	}

	end := time.Now()
	start := end.Add(-24 * time.Hour)
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time"})
			return
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time"})
			return
		}
		end = t
	}

	samples, err := tc.svc.GetLocationHistory(c.Request.Context(), userID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "count": len(samples), "samples": samples})
}
