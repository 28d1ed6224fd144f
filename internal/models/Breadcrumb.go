package models

import (
	"time"

	"gorm.io/gorm"
)

// Breadcrumb is a compressed batch of consecutive samples for one user,
// kept for later route reconstruction. Points holds the JSON-encoded
// ordered tuple list produced by the archiver.
type Breadcrumb struct {
	gorm.Model
	UserID     uint      `json:"user_id" gorm:"index"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	PointCount int       `json:"point_count"`
	Points     []byte    `json:"points" gorm:"type:bytea"`
}

// BreadcrumbPoint is one entry inside Breadcrumb.Points.
type BreadcrumbPoint struct {
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	Time    time.Time `json:"time"`
	Speed   float64   `json:"speed"`
	Heading float64   `json:"heading"`
}
