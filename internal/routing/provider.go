package routing

import (
	"context"
	"errors"

	"fieldtrack/internal/geo"
)

// ErrProviderUnavailable marks transient provider failures. Callers
// treat it as "no result" and keep their previous stop order.
var ErrProviderUnavailable = errors.New("directions provider unavailable")

// TripRequest asks the provider to reorder waypoints into an optimized
// round trip. The first waypoint is the fixed start.
type TripRequest struct {
	Waypoints   []geo.Point
	Profile     string // "driving"
	RoundTrip   bool
	Source      string // "first"
	Destination string // "last"
}

// TripResult is the provider's answer. WaypointOrder[i] is the position
// of input waypoint i in the optimized trip.
type TripResult struct {
	WaypointOrder   []int
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string // encoded polyline, 5-decimal precision
}

// DirectionsProvider is the external routing boundary.
type DirectionsProvider interface {
	OptimizeTrip(ctx context.Context, req TripRequest) (*TripResult, error)
}
