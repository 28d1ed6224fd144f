package models

import (
	"time"

	"gorm.io/gorm"
)

// Violation severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Violation types produced by the detector.
const (
	ViolationSpeedLimit = "speed_limit"
	ViolationTimeWindow = "time_window"
	ViolationSchoolZone = "school_zone"
)

// ComplianceViolation is an append-only record of a detected rule breach.
// Only the resolution fields are mutable, via explicit acknowledgement.
type ComplianceViolation struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"index"`
	ZoneID        uint       `json:"zone_id" gorm:"index"`
	ViolationType string     `json:"violation_type"`
	Severity      string     `json:"severity"`
	Details       []byte     `json:"details" gorm:"type:bytea"` // JSON payload
	Timestamp     time.Time  `json:"timestamp"`
	Resolved      bool       `json:"resolved" gorm:"default:false;index"`
	ResolvedBy    string     `json:"resolved_by"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	Notes         string     `json:"notes"`
}
