package models

import (
	"time"

	"gorm.io/gorm"
)

// Stop lifecycle states. A stop finalizes exactly once to completed,
// failed, or skipped; "arrived" is an intermediate state reachable
// automatically by proximity.
const (
	StopPending   = "pending"
	StopArrived   = "arrived"
	StopCompleted = "completed"
	StopFailed    = "failed"
	StopSkipped   = "skipped"
)

// DeliveryStop is one destination on a delivery route. StopNumber is
// unique and sequential within a route.
type DeliveryStop struct {
	gorm.Model
	RouteID      uint   `json:"route_id" gorm:"index"`
	BusinessName string `json:"business_name"`
	OrderID      *uint  `json:"order_id"`
	StopNumber   int    `json:"stop_number"`
	Status       string `json:"status" gorm:"default:pending"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`

	ArrivedAt  *time.Time `json:"arrived_at"`
	DepartedAt *time.Time `json:"departed_at"`

	// Proof of delivery, captured at finalization.
	SignatureRef  string `json:"signature_ref"`
	PhotoRefs     string `json:"photo_refs"` // comma-separated storage refs
	Notes         string `json:"notes"`
	FailureReason string `json:"failure_reason"`
}
