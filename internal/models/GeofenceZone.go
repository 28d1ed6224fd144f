package models

import (
	"gorm.io/gorm"
)

// Zone categories with regulatory meaning.
const (
	ZoneTypeSchool          = "school"
	ZoneTypeFederalProperty = "federal_property"
	ZoneTypeRestricted      = "restricted"
	ZoneTypeDeliveryZone    = "delivery_zone"
	ZoneTypeCompetitor      = "competitor"
)

// GeofenceZone is a named geographic region with restriction rules.
// A zone is either a circle (CenterLat/CenterLng/RadiusMeters set) or a
// polygon (Polygon set), never both. Polygon geometry is stored as WKB
// (SRID 4326); GeoJSON is accepted and produced at the API boundary.
type GeofenceZone struct {
	gorm.Model
	Name     string `json:"name" binding:"required" gorm:"uniqueIndex"`
	ZoneType string `json:"zone_type"`

	CenterLat    *float64 `json:"center_lat"`
	CenterLng    *float64 `json:"center_lng"`
	RadiusMeters *float64 `json:"radius_meters"`

	Polygon []byte `json:"-" gorm:"type:bytea"`

	// Restriction rules evaluated by the compliance detector.
	NoDelivery    bool     `json:"no_delivery"`
	NoSales       bool     `json:"no_sales"`
	SpeedLimitMPH *float64 `json:"speed_limit_mph"`
	TimeWindows   []byte   `json:"-" gorm:"type:bytea"` // JSON-encoded []TimeWindow

	AlertEnabled bool `json:"alert_enabled" gorm:"default:true"`
	Active       bool `json:"active" gorm:"default:true;index"`
}

// TimeWindow is a restricted time-of-day window on given weekdays.
// Start and End are local wall-clock times in "15:04" form.
type TimeWindow struct {
	Days  []int  `json:"days"` // time.Weekday values, 0 = Sunday
	Start string `json:"start"`
	End   string `json:"end"`
}
