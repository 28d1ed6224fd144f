package models

import (
	"time"

	"gorm.io/gorm"
)

// Geofence event types.
const (
	EventEnter          = "enter"
	EventExit           = "exit"
	EventDwell          = "dwell"
	EventSpeedViolation = "speed_violation"
)

// GeofenceEvent records a single zone transition for a user. Append-only.
type GeofenceEvent struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"index"`
	ZoneID    uint      `json:"zone_id" gorm:"index"`
	EventType string    `json:"event_type"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}
