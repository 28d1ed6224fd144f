package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles carried in token claims. Drivers and sales reps are tracked;
// dispatchers watch and administer zones.
const (
	RoleDriver     = "driver"
	RoleSalesRep   = "sales_rep"
	RoleDispatcher = "dispatcher"
)

// Derived activity classes for a sample.
const (
	ActivityStationary = "stationary"
	ActivityWalking    = "walking"
	ActivityDriving    = "driving"
)

// LocationSample is one raw position fix for a tracked user.
// Samples are append-only; rows are never updated after creation.
type LocationSample struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"index:idx_samples_user_time"`
	Role         string    `json:"role"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     float64   `json:"accuracy"` // GPS accuracy in meters
	Altitude     float64   `json:"altitude"` // Altitude in meters
	Heading      float64   `json:"heading"`  // Direction in degrees
	Speed        float64   `json:"speed"`    // Speed in m/s
	Activity     string    `json:"activity"` // "stationary", "walking", "driving"
	BatteryLevel float64   `json:"battery_level"`
	Timestamp    time.Time `json:"timestamp" gorm:"index:idx_samples_user_time"`
}
