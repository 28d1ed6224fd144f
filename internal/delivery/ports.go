package delivery

import (
	"context"
	"time"

	"fieldtrack/internal/models"
	"fieldtrack/internal/tracking"
)

// RouteStore persists delivery routes. Find returns (nil, nil) when the
// route does not exist.
type RouteStore interface {
	Find(ctx context.Context, id uint) (*models.DeliveryRoute, error)
	Save(ctx context.Context, route *models.DeliveryRoute) error
	ActiveByDriver(ctx context.Context, driverID uint, date time.Time) ([]models.DeliveryRoute, error)
}

// StopStore persists delivery stops. ByRoute orders by stop number
// ascending.
type StopStore interface {
	Find(ctx context.Context, id uint) (*models.DeliveryStop, error)
	Save(ctx context.Context, stop *models.DeliveryStop) error
	ByRoute(ctx context.Context, routeID uint) ([]models.DeliveryStop, error)
}

// Tracker is the slice of the tracking service the route state machine
// drives: per-driver sessions and location reads.
type Tracker interface {
	StartTracking(userID uint, role string, opts tracking.Options) error
	StopTracking(userID uint) error
	IsTracking(userID uint) bool
	LastKnown(userID uint) (models.LocationSample, bool)
	GetLocationHistory(ctx context.Context, userID uint, start, end time.Time) ([]models.LocationSample, error)
}

// Notification request kinds.
const (
	NotifyStopApproaching = "stop_approaching"
	NotifyStopCompleted   = "stop_completed"
	NotifyStopFailed      = "stop_failed"
)

// NotificationRequest asks an external delivery mechanism (push, SMS,
// email) to notify someone. The core only emits requests.
type NotificationRequest struct {
	UserID  uint
	Kind    string
	Title   string
	Body    string
	RouteID uint
	StopID  uint
}

// Notifier accepts notification requests. Implementations must not
// block route processing.
type Notifier interface {
	Notify(ctx context.Context, req NotificationRequest)
}
