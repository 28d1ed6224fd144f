package models

import (
	"time"

	"gorm.io/gorm"
)

// Route lifecycle states. Transitions are forward-only except the
// explicit "cancelled" escape; completed and cancelled are terminal.
const (
	RoutePlanned    = "planned"
	RouteInProgress = "in_progress"
	RouteCompleted  = "completed"
	RouteCancelled  = "cancelled"
)

// DeliveryRoute is one driver's multi-stop delivery run for a date.
// CompletedStops/TotalStops are recomputed from the stop table whenever
// a stop finalizes, never incremented in place.
type DeliveryRoute struct {
	gorm.Model
	DriverID uint      `json:"driver_id" gorm:"index"`
	Date     time.Time `json:"date" gorm:"index"`
	Status   string    `json:"status" gorm:"default:planned;index"`

	TotalStops     int `json:"total_stops"`
	CompletedStops int `json:"completed_stops"`

	PlannedDistanceMiles   float64 `json:"planned_distance_miles"`
	PlannedDurationMinutes float64 `json:"planned_duration_minutes"`
	ActualDistanceMiles    float64 `json:"actual_distance_miles"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	ManifestNumber string `json:"manifest_number"`
	Polyline       string `json:"polyline"` // encoded optimized path

	Stops []DeliveryStop `json:"stops,omitempty" gorm:"foreignKey:RouteID"`
}
