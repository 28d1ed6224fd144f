package tracking

import (
	"context"
	"time"

	"fieldtrack/internal/models"
)

// SampleStore is the append-only persistence boundary for location
// samples. Lookups that match nothing return (nil, nil).
type SampleStore interface {
	SaveBatch(ctx context.Context, samples []models.LocationSample) error
	LatestByUser(ctx context.Context, userID uint) (*models.LocationSample, error)
	ByUserBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.LocationSample, error)
}

// BreadcrumbStore persists compressed sample batches.
type BreadcrumbStore interface {
	Save(ctx context.Context, crumb *models.Breadcrumb) error
}

// ZoneEvaluator is the geofence boundary the zone-membership poll calls
// into with the freshest sample for a user. Forget releases the
// evaluator's per-user state when a session ends.
type ZoneEvaluator interface {
	EvaluateUser(ctx context.Context, userID uint, sample models.LocationSample) error
	Forget(userID uint)
}

// LivePublisher pushes tracking traffic onto the optional live channel.
type LivePublisher interface {
	PublishLocation(userID uint, sample models.LocationSample)
	PublishTrackingError(userID uint, message string)
}
