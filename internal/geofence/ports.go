package geofence

import (
	"context"
	"time"

	"fieldtrack/internal/models"
)

// ZoneStore is the persistence boundary for zone definitions.
type ZoneStore interface {
	ListActive(ctx context.Context) ([]models.GeofenceZone, error)
	Find(ctx context.Context, id uint) (*models.GeofenceZone, error)
	Create(ctx context.Context, zone *models.GeofenceZone) error
	Update(ctx context.Context, zone *models.GeofenceZone) error
	Delete(ctx context.Context, id uint) error
}

// EventStore appends geofence transition events.
type EventStore interface {
	Save(ctx context.Context, event *models.GeofenceEvent) error
}

// ViolationFilters narrow a compliance-violation query. Zero values
// mean "any".
type ViolationFilters struct {
	UserID   uint
	ZoneID   uint
	Severity string
	Resolved *bool
	Start    time.Time
	End      time.Time
}

// ViolationStore persists and queries compliance violations.
type ViolationStore interface {
	Save(ctx context.Context, v *models.ComplianceViolation) error
	ListUnresolved(ctx context.Context) ([]models.ComplianceViolation, error)
	List(ctx context.Context, filters ViolationFilters) ([]models.ComplianceViolation, error)
	Acknowledge(ctx context.Context, id uint, who, notes string) (*models.ComplianceViolation, error)
}

// AlertPublisher pushes geofence alerts onto the live channel.
type AlertPublisher interface {
	PublishGeofenceAlert(userID uint, zoneID uint, zoneName, eventType string)
}
